package task

import "math"

// Normalize converts decoded server records into a canonical task tree.
// It never fails: bad fields become absent, missing children mean a leaf.
// The walk uses an explicit stack so depth is bounded only by memory.
func Normalize(records []Record) []*Node {
	type frame struct {
		rec      *Record
		slot     **Node
		parentID string
	}

	roots := make([]*Node, len(records))
	stack := make([]frame, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		stack = append(stack, frame{rec: &records[i], slot: &roots[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := nodeFromRecord(f.rec, f.parentID)
		*f.slot = n

		if len(f.rec.Children) == 0 {
			continue
		}
		n.Children = make([]*Node, len(f.rec.Children))
		// Push in reverse so siblings come off the stack in order.
		for i := len(f.rec.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{rec: &f.rec.Children[i], slot: &n.Children[i], parentID: n.ID})
		}
	}

	return roots
}

func nodeFromRecord(r *Record, owner string) *Node {
	parentID := string(r.ParentID)
	if parentID == "" {
		parentID = owner
	}

	costActual := r.ActualExpensesValues.Ptr()
	if costActual == nil {
		costActual = r.ExpensesValues.Ptr()
	}

	return &Node{
		ID:           string(r.ID),
		ParentID:     parentID,
		Name:         string(r.Name),
		Status:       NormalizeStatus(string(r.Status)),
		Progress:     ClampProgress(r.Progress.Value),
		PlannedStart: r.PlannedStartDate.Ptr(),
		PlannedEnd:   r.PlannedEndDate.Ptr(),
		ActualStart:  r.ActualStartDate.Ptr(),
		ActualEnd:    r.ActualEndDate.Ptr(),
		CostActual:   costActual,
		CostPlanned:  r.PlannedExpensesValues.Ptr(),
	}
}

// ClampProgress bounds a raw progress value to [0, 100]. NaN becomes 0.
func ClampProgress(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
