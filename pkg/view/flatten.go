package view

import "github.com/vitorsm/construction-management-client/pkg/task"

// Row is one visible line of a tree view.
type Row struct {
	Node        *task.Node
	ParentID    string // id of the row's parent in this tree; empty for roots
	Level       int
	HasChildren bool
	IsExpanded  bool
}

// ID returns the row's node id.
func (r Row) ID() string {
	return r.Node.ID
}

// Flatten lists the visible rows in pre-order. Roots are always visible;
// a node's children follow it only when the node is expanded in s.
// A nil state has nothing expanded.
func Flatten(roots []*task.Node, s ExpansionState) []Row {
	if s == nil {
		s = ExpansionSet(nil)
	}

	type frame struct {
		node   *task.Node
		parent string
		level  int
	}

	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i]})
	}

	rows := make([]Row, 0, len(roots))
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node == nil {
			panic("view: nil node in tree")
		}

		row := Row{
			Node:        f.node,
			ParentID:    f.parent,
			Level:       f.level,
			HasChildren: f.node.HasChildren(),
			IsExpanded:  s.IsExpanded(f.node.ID),
		}
		rows = append(rows, row)

		if !row.HasChildren || !row.IsExpanded {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], parent: f.node.ID, level: f.level + 1})
		}
	}
	return rows
}

// IndexOf returns the position of the row holding id, or -1.
func IndexOf(rows []Row, id string) int {
	for i, r := range rows {
		if r.Node.ID == id {
			return i
		}
	}
	return -1
}
