package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vitorsm/construction-management-client/pkg/task"
	"github.com/vitorsm/construction-management-client/pkg/view"
)

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusIcon(s task.Status) string {
	switch s {
	case task.StatusDone:
		return "✓"
	case task.StatusInProgress:
		return "◐"
	default:
		return "○"
	}
}

func printRows(w io.Writer, proj *view.Projection) {
	if len(proj.Rows) == 0 {
		if proj.Total.Total == 0 {
			fmt.Fprintln(w, "No tasks.")
		} else {
			fmt.Fprintln(w, "No tasks match the current filters.")
		}
		return
	}

	for _, row := range proj.Rows {
		n := row.Node
		marker := "  "
		switch {
		case row.HasChildren && row.IsExpanded:
			marker = "▼ "
		case row.HasChildren:
			marker = "▶ "
		}

		suffix := ""
		if n.Progress > 0 && !n.IsDone() {
			suffix += fmt.Sprintf(" %.0f%%", n.Progress)
		}
		if task.IsDelayed(n) {
			suffix += " [delayed]"
		}

		indent := strings.Repeat("  ", row.Level)
		fmt.Fprintf(w, "%s%s%s %s%s\n", indent, marker, statusIcon(n.Status), n.Name, suffix)
	}
}

func printSummary(w io.Writer, proj *view.Projection) {
	f, t := proj.Filtered, proj.Total
	fmt.Fprintf(w, "%-12s %10s %10s\n", "", "shown", "total")
	fmt.Fprintf(w, "%-12s %10d %10d\n", "tasks", f.Total, t.Total)
	fmt.Fprintf(w, "%-12s %10d %10d\n", "done", f.Completed, t.Completed)
	fmt.Fprintf(w, "%-12s %10d %10d\n", "in progress", f.InProgress, t.InProgress)
	fmt.Fprintf(w, "%-12s %10d %10d\n", "todo", f.Todo, t.Todo)
	fmt.Fprintf(w, "%-12s %10d %10d\n", "delayed", f.Delayed, t.Delayed)
	fmt.Fprintf(w, "%-12s %10.2f %10.2f\n", "actual", proj.FilteredCosts.Actual, proj.TotalCosts.Actual)
	fmt.Fprintf(w, "%-12s %10.2f %10.2f\n", "planned", proj.FilteredCosts.Planned, proj.TotalCosts.Planned)
	if proj.TotalCosts.OverBudget() && proj.TotalCosts.Planned > 0 {
		fmt.Fprintln(w, "over budget")
	}
}

type delayedTask struct {
	Node  *task.Node
	Depth int
}

func printDelayed(w io.Writer, delayed []delayedTask) {
	if len(delayed) == 0 {
		fmt.Fprintln(w, "No delayed tasks.")
		return
	}
	for _, d := range delayed {
		n := d.Node
		due := ""
		if n.PlannedEnd != nil {
			due = " (due " + n.PlannedEnd.Format(task.DateLayout) + ")"
		}
		fmt.Fprintf(w, "%s%s %s%s\n", strings.Repeat("  ", d.Depth), statusIcon(n.Status), n.Name, due)
	}
}

// JSON shapes

type rowJSON struct {
	ID           string     `json:"id"`
	ParentID     string     `json:"parent_id,omitempty"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	Level        int        `json:"level"`
	HasChildren  bool       `json:"has_children"`
	Expanded     bool       `json:"expanded"`
	Delayed      bool       `json:"delayed"`
	Progress     float64    `json:"progress"`
	PlannedStart string     `json:"planned_start_date,omitempty"`
	PlannedEnd   string     `json:"planned_end_date,omitempty"`
	ActualStart  string     `json:"actual_start_date,omitempty"`
	ActualEnd    string     `json:"actual_end_date,omitempty"`
	Cost         *task.Cost `json:"cost,omitempty"`
}

type summaryJSON struct {
	Filtered      task.Summary `json:"filtered"`
	Total         task.Summary `json:"total"`
	FilteredCosts task.Cost    `json:"filtered_costs"`
	TotalCosts    task.Cost    `json:"total_costs"`
}

type delayedJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Depth      int    `json:"depth"`
	PlannedEnd string `json:"planned_end_date,omitempty"`
	ActualEnd  string `json:"actual_end_date,omitempty"`
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(task.DateLayout)
}

func rowsToJSON(proj *view.Projection) []rowJSON {
	result := make([]rowJSON, 0, len(proj.Rows))
	for _, row := range proj.Rows {
		n := row.Node
		r := rowJSON{
			ID:           n.ID,
			ParentID:     row.ParentID,
			Name:         n.Name,
			Status:       string(n.Status),
			Level:        row.Level,
			HasChildren:  row.HasChildren,
			Expanded:     row.IsExpanded,
			Delayed:      task.IsDelayed(n),
			Progress:     n.Progress,
			PlannedStart: dateString(n.PlannedStart),
			PlannedEnd:   dateString(n.PlannedEnd),
			ActualStart:  dateString(n.ActualStart),
			ActualEnd:    dateString(n.ActualEnd),
		}
		if c, ok := proj.RowCosts[n.ID]; ok {
			r.Cost = &c
		}
		result = append(result, r)
	}
	return result
}

func summaryToJSON(proj *view.Projection) summaryJSON {
	return summaryJSON{
		Filtered:      proj.Filtered,
		Total:         proj.Total,
		FilteredCosts: proj.FilteredCosts,
		TotalCosts:    proj.TotalCosts,
	}
}

func delayedToJSON(delayed []delayedTask) []delayedJSON {
	result := make([]delayedJSON, 0, len(delayed))
	for _, d := range delayed {
		result = append(result, delayedJSON{
			ID:         d.Node.ID,
			Name:       d.Node.Name,
			Status:     string(d.Node.Status),
			Depth:      d.Depth,
			PlannedEnd: dateString(d.Node.PlannedEnd),
			ActualEnd:  dateString(d.Node.ActualEnd),
		})
	}
	return result
}
