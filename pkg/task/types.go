// Package task holds the canonical task tree and the pure transforms over it:
// normalization of server records, delay evaluation, ancestor-preserving
// filtering, and aggregate statistics.
package task

import (
	"strings"
	"time"
)

// Status represents the canonical state of a task.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists the canonical statuses in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// statusSynonyms maps every spelling the server has been seen to emit onto
// the canonical set. Keys are upper-cased with '-' and ' ' folded to '_'.
var statusSynonyms = map[string]Status{
	"TODO":        StatusTodo,
	"TO_DO":       StatusTodo,
	"NOT_STARTED": StatusTodo,
	"IN_PROGRESS": StatusInProgress,
	"INPROGRESS":  StatusInProgress,
	"DONE":        StatusDone,
	"COMPLETED":   StatusDone,
	"COMPLETE":    StatusDone,
}

// ParseStatus maps a raw status string onto the canonical set.
// The second return is false when the string is not a known spelling.
func ParseStatus(raw string) (Status, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	s, ok := statusSynonyms[key]
	return s, ok
}

// NormalizeStatus is ParseStatus with unknown values mapped to StatusTodo.
func NormalizeStatus(raw string) Status {
	if s, ok := ParseStatus(raw); ok {
		return s
	}
	return StatusTodo
}

// Node is one task in a normalized tree. Nodes are built once per fetch and
// never mutated afterwards; transforms return new nodes.
type Node struct {
	ID       string
	ParentID string // lookup hint only; ownership is Children
	Name     string
	Status   Status
	Progress float64 // always within [0, 100]

	PlannedStart *time.Time
	PlannedEnd   *time.Time
	ActualStart  *time.Time
	ActualEnd    *time.Time

	CostActual  *float64
	CostPlanned *float64

	Children []*Node
}

// IsDone returns true if the task is in the terminal status.
func (n *Node) IsDone() bool {
	return n.Status == StatusDone
}

// IsInProgress returns true if the task is in progress.
func (n *Node) IsInProgress() bool {
	return n.Status == StatusInProgress
}

// HasChildren reports whether the node owns any subtasks.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// StartDate returns the actual start when known, else the planned start.
func (n *Node) StartDate() *time.Time {
	if n.ActualStart != nil {
		return n.ActualStart
	}
	return n.PlannedStart
}

// EndDate returns the actual end when known, else the planned end.
func (n *Node) EndDate() *time.Time {
	if n.ActualEnd != nil {
		return n.ActualEnd
	}
	return n.PlannedEnd
}

// shallowCopy returns a copy of n that shares every field except Children.
func (n *Node) shallowCopy() *Node {
	c := *n
	c.Children = nil
	return &c
}

// mustNode panics on a nil node. A nil entry in a tree is an integration bug
// and surfaces immediately instead of being counted as nothing.
func mustNode(n *Node) *Node {
	if n == nil {
		panic("task: nil node in tree")
	}
	return n
}
