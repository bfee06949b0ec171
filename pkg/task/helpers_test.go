package task

import (
	"fmt"
	"time"

	"pgregory.net/rapid"
)

func node(id string, status Status, children ...*Node) *Node {
	for _, c := range children {
		c.ParentID = id
	}
	return &Node{ID: id, Name: "task " + id, Status: status, Children: children}
}

func day(s string) *time.Time {
	t, ok := ParseDate(s)
	if !ok {
		panic("bad test date " + s)
	}
	return &t
}

func money(v float64) *float64 {
	return &v
}

func ids(nodes []*Node) []string {
	var out []string
	Walk(nodes, func(n *Node, _ int) { out = append(out, n.ID) })
	return out
}

// shape lists (id, depth) pairs in pre-order, which pins down the structure
// of a forest with unique ids.
func shape(nodes []*Node) []string {
	var out []string
	Walk(nodes, func(n *Node, depth int) { out = append(out, fmt.Sprintf("%s@%d", n.ID, depth)) })
	return out
}

// genForest draws a small forest with unique ids, random statuses and
// optional planned ends around a fixed reference date.
func genForest(t *rapid.T) []*Node {
	next := 0
	var build func(depth int) *Node
	build = func(depth int) *Node {
		next++
		n := &Node{
			ID:     fmt.Sprintf("n%d", next),
			Name:   fmt.Sprintf("task %d", next),
			Status: rapid.SampledFrom(Statuses).Draw(t, "status"),
		}
		if rapid.Bool().Draw(t, "hasEnd") {
			end := Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local)).
				AddDate(0, 0, rapid.IntRange(-10, 10).Draw(t, "endOffset"))
			n.PlannedEnd = &end
		}
		if depth < 4 {
			for i := rapid.IntRange(0, 3).Draw(t, "children"); i > 0; i-- {
				c := build(depth + 1)
				c.ParentID = n.ID
				n.Children = append(n.Children, c)
			}
		}
		return n
	}

	roots := make([]*Node, rapid.IntRange(0, 4).Draw(t, "roots"))
	for i := range roots {
		roots[i] = build(0)
	}
	return roots
}
