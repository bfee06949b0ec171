package task

import "time"

// IsDelayed reports whether the task is late as of today.
func IsDelayed(n *Node) bool {
	return IsDelayedAt(n, time.Now())
}

// IsDelayedAt reports whether the task is late as of the day containing now.
//
// An open task is late once its planned end is before today. A done task is
// late when it finished after its planned end. Without a planned end a task
// is never late.
func IsDelayedAt(n *Node, now time.Time) bool {
	if n.PlannedEnd == nil {
		return false
	}
	plannedEnd := Day(*n.PlannedEnd)

	if !n.IsDone() {
		return plannedEnd.Before(Day(now))
	}
	if n.ActualEnd == nil {
		return false
	}
	return Day(*n.ActualEnd).After(plannedEnd)
}
