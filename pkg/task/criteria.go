package task

import (
	"fmt"
	"strings"
	"time"
)

// DateMode selects how a planned-date window is matched.
type DateMode string

const (
	// DateOverlap matches when the planned interval intersects the window.
	DateOverlap DateMode = "overlap"
	// DateWithin matches when the planned start is on or after From and the
	// planned end is on or before To.
	DateWithin DateMode = "within"
)

// ParseDateMode validates a date mode name. Empty means DateOverlap.
func ParseDateMode(s string) (DateMode, error) {
	switch DateMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DateOverlap:
		return DateOverlap, nil
	case DateWithin:
		return DateWithin, nil
	}
	return "", fmt.Errorf("invalid date mode: %s (use overlap or within)", s)
}

// Criteria is the status/date/search filter applied to a task tree.
// The zero value matches nothing in particular and yields a nil predicate.
type Criteria struct {
	Statuses    []Status
	From        *time.Time
	To          *time.Time
	DateMode    DateMode
	Query       string
	DelayedOnly bool
	Now         time.Time // reference time for DelayedOnly; zero means wall clock
}

// IsActive reports whether any criterion is set.
func (c Criteria) IsActive() bool {
	return len(c.Statuses) > 0 || c.From != nil || c.To != nil ||
		strings.TrimSpace(c.Query) != "" || c.DelayedOnly
}

// HasStatus reports whether s is selected in the status filter.
func (c Criteria) HasStatus(s Status) bool {
	for _, v := range c.Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// ToggleStatus returns a copy of c with s added to or removed from the
// status filter. Canonical order is kept.
func (c Criteria) ToggleStatus(s Status) Criteria {
	selected := make(map[Status]bool, len(c.Statuses)+1)
	for _, v := range c.Statuses {
		selected[v] = true
	}
	selected[s] = !selected[s]

	c.Statuses = nil
	for _, v := range Statuses {
		if selected[v] {
			c.Statuses = append(c.Statuses, v)
		}
	}
	return c
}

// Predicate builds the per-node predicate. It returns nil when no
// criterion is active so that filtering is the identity.
func (c Criteria) Predicate() Predicate {
	if !c.IsActive() {
		return nil
	}

	statuses := make(map[Status]bool, len(c.Statuses))
	for _, s := range c.Statuses {
		statuses[s] = true
	}
	query := strings.ToLower(strings.TrimSpace(c.Query))
	now := c.Now

	return func(n *Node) (bool, error) {
		if len(statuses) > 0 && !statuses[n.Status] {
			return false, nil
		}
		if !c.matchDates(n) {
			return false, nil
		}
		if query != "" && !strings.Contains(strings.ToLower(n.Name), query) {
			return false, nil
		}
		if c.DelayedOnly {
			at := now
			if at.IsZero() {
				at = time.Now()
			}
			if !IsDelayedAt(n, at) {
				return false, nil
			}
		}
		return true, nil
	}
}

func (c Criteria) matchDates(n *Node) bool {
	if c.From == nil && c.To == nil {
		return true
	}

	if c.DateMode == DateWithin {
		if c.From != nil && (n.PlannedStart == nil || Day(*n.PlannedStart).Before(Day(*c.From))) {
			return false
		}
		if c.To != nil && (n.PlannedEnd == nil || Day(*n.PlannedEnd).After(Day(*c.To))) {
			return false
		}
		return true
	}

	start, end := n.PlannedStart, n.PlannedEnd
	if start == nil {
		start = end
	}
	if end == nil {
		end = start
	}
	if start == nil {
		return false
	}
	if c.To != nil && Day(*start).After(Day(*c.To)) {
		return false
	}
	if c.From != nil && Day(*end).Before(Day(*c.From)) {
		return false
	}
	return true
}

// ParseDateRange parses "FROM..TO" where either side may be empty.
// A single date without ".." selects that one day.
func ParseDateRange(s string) (from, to *time.Time, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil, nil
	}

	left, right, found := strings.Cut(s, "..")
	if !found {
		right = left
	}

	if left = strings.TrimSpace(left); left != "" {
		t, ok := ParseDate(left)
		if !ok {
			return nil, nil, fmt.Errorf("invalid date %q (use %s)", left, DateLayout)
		}
		from = &t
	}
	if right = strings.TrimSpace(right); right != "" {
		t, ok := ParseDate(right)
		if !ok {
			return nil, nil, fmt.Errorf("invalid date %q (use %s)", right, DateLayout)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("invalid range %q: end before start", s)
	}
	return from, to, nil
}

// FormatDateRange renders a window in the form ParseDateRange accepts.
func FormatDateRange(from, to *time.Time) string {
	if from == nil && to == nil {
		return ""
	}
	var b strings.Builder
	if from != nil {
		b.WriteString(from.Format(DateLayout))
	}
	b.WriteString("..")
	if to != nil {
		b.WriteString(to.Format(DateLayout))
	}
	return b.String()
}
