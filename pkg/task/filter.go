package task

import (
	"errors"
	"fmt"
)

// ErrPredicate is matched by every error a filter predicate produces.
var ErrPredicate = errors.New("filter predicate failed")

// TreeProcessingError reports a predicate failure on a specific node. The
// filter stops instead of dropping the node, since a silently skipped node
// would break ancestor preservation.
type TreeProcessingError struct {
	NodeID string
	Err    error
}

func (e *TreeProcessingError) Error() string {
	return fmt.Sprintf("filtering task %q: %v", e.NodeID, e.Err)
}

// Unwrap exposes both ErrPredicate and the underlying cause.
func (e *TreeProcessingError) Unwrap() []error {
	return []error{ErrPredicate, e.Err}
}

// Predicate decides whether a node matches on its own fields.
type Predicate func(*Node) (bool, error)

// Filter returns a new tree holding every node that matches p or has a
// surviving descendant. Surviving nodes are copies whose children are the
// filtered children, so a direct match can still lose subtasks. Sibling
// order is preserved and the input is never modified.
//
// A nil predicate is the identity: roots is returned as is. A nil slice is
// an empty forest; a nil node inside it panics.
func Filter(roots []*Node, p Predicate) ([]*Node, error) {
	if p == nil {
		return roots, nil
	}

	out := make([]*Node, 0, len(roots))
	for _, root := range roots {
		kept, err := filterTree(mustNode(root), p)
		if err != nil {
			return nil, err
		}
		if kept != nil {
			out = append(out, kept)
		}
	}
	return out, nil
}

// filterTree walks one root in post-order with an explicit stack.
func filterTree(root *Node, p Predicate) (*Node, error) {
	type frame struct {
		src  *Node
		next int
		kept []*Node
	}

	stack := []*frame{{src: root}}
	var result *Node

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.src.Children) {
			child := mustNode(top.src.Children[top.next])
			top.next++
			stack = append(stack, &frame{src: child})
			continue
		}

		stack = stack[:len(stack)-1]

		matched, err := evaluate(p, top.src)
		if err != nil {
			return nil, err
		}

		var survivor *Node
		if matched || len(top.kept) > 0 {
			survivor = top.src.shallowCopy()
			survivor.Children = top.kept
		}

		if len(stack) == 0 {
			result = survivor
		} else if survivor != nil {
			parent := stack[len(stack)-1]
			parent.kept = append(parent.kept, survivor)
		}
	}

	return result, nil
}

func evaluate(p Predicate, n *Node) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = &TreeProcessingError{NodeID: n.ID, Err: fmt.Errorf("predicate panicked: %v", r)}
		}
	}()

	matched, err = p(n)
	if err != nil {
		return false, &TreeProcessingError{NodeID: n.ID, Err: err}
	}
	return matched, nil
}
