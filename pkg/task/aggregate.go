package task

import "time"

// Summary holds status counts over a whole tree.
type Summary struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Todo       int `json:"todo"`
	Delayed    int `json:"delayed"`
}

// Cost is a pair of monetary amounts.
type Cost struct {
	Actual  float64 `json:"actual"`
	Planned float64 `json:"planned"`
}

// Add returns the sum of two costs.
func (c Cost) Add(o Cost) Cost {
	return Cost{Actual: c.Actual + o.Actual, Planned: c.Planned + o.Planned}
}

// OverBudget reports whether the actual amount exceeds the planned one.
func (c Cost) OverBudget() bool {
	return c.Actual > c.Planned
}

// Walk visits every node in pre-order, depth 0 for roots. It uses an
// explicit stack and ignores expansion entirely.
func Walk(roots []*Node, fn func(n *Node, depth int)) {
	type frame struct {
		node  *Node
		depth int
	}

	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: mustNode(roots[i])})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(f.node, f.depth)

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: mustNode(f.node.Children[i]), depth: f.depth + 1})
		}
	}
}

// Count returns the number of nodes in the tree.
func Count(roots []*Node) int {
	n := 0
	Walk(roots, func(*Node, int) { n++ })
	return n
}

// Aggregate counts every node by status and delay as of today. Collapsed
// subtrees are counted like any other. A nil slice is an empty forest and
// yields a zero Summary; a nil node inside the forest panics.
func Aggregate(roots []*Node) Summary {
	return AggregateAt(roots, time.Now())
}

// AggregateAt is Aggregate with an explicit reference time for delays.
func AggregateAt(roots []*Node, now time.Time) Summary {
	var s Summary
	Walk(roots, func(n *Node, _ int) {
		s.Total++
		switch n.Status {
		case StatusDone:
			s.Completed++
		case StatusInProgress:
			s.InProgress++
		default:
			s.Todo++
		}
		if IsDelayedAt(n, now) {
			s.Delayed++
		}
	})
	return s
}

// OwnCost returns the costs recorded on n itself. Absent values count as 0.
func OwnCost(n *Node) Cost {
	var c Cost
	if n.CostActual != nil {
		c.Actual = *n.CostActual
	}
	if n.CostPlanned != nil {
		c.Planned = *n.CostPlanned
	}
	return c
}

// Costs sums every node's own recorded costs. Parents are not credited with
// their children's costs; each record is taken as authoritative.
func Costs(roots []*Node) Cost {
	var total Cost
	Walk(roots, func(n *Node, _ int) {
		total = total.Add(OwnCost(n))
	})
	return total
}

// RollupCosts returns, for every node id, the node's own cost plus the
// costs of all its descendants.
func RollupCosts(roots []*Node) map[string]Cost {
	type frame struct {
		node    *Node
		visited bool
	}

	out := make(map[string]Cost)
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: mustNode(roots[i])})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !f.visited {
			stack = append(stack, frame{node: f.node, visited: true})
			for i := len(f.node.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: mustNode(f.node.Children[i])})
			}
			continue
		}

		c := OwnCost(f.node)
		for _, child := range f.node.Children {
			c = c.Add(out[child.ID])
		}
		out[f.node.ID] = c
	}
	return out
}
