package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/vitorsm/construction-management-client/pkg/task"
)

func node(id string, status task.Status, children ...*task.Node) *task.Node {
	return &task.Node{ID: id, Name: id, Status: status, Children: children}
}

func rowIDs(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Node.ID
	}
	return out
}

func doneOnly(n *task.Node) (bool, error) {
	return n.Status == task.StatusDone, nil
}

func TestFlattenCollapsedHidesChildren(t *testing.T) {
	tree := []*task.Node{node("A", task.StatusTodo, node("B", task.StatusDone))}
	filtered, err := task.Filter(tree, doneOnly)
	require.NoError(t, err)

	store := NewExpansionStore()
	rows := Flatten(filtered, store)

	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Node.ID)
	assert.Equal(t, 0, rows[0].Level)
	assert.True(t, rows[0].HasChildren)
	assert.False(t, rows[0].IsExpanded)
}

func TestFlattenAfterToggle(t *testing.T) {
	tree := []*task.Node{node("A", task.StatusTodo, node("B", task.StatusDone))}
	filtered, err := task.Filter(tree, doneOnly)
	require.NoError(t, err)

	store := NewExpansionStore()
	assert.True(t, store.Toggle("A"))
	rows := Flatten(filtered, store)

	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Node.ID)
	assert.True(t, rows[0].IsExpanded)
	assert.Equal(t, "B", rows[1].Node.ID)
	assert.Equal(t, 1, rows[1].Level)
	assert.Equal(t, "A", rows[1].ParentID)
	assert.False(t, rows[1].HasChildren)
}

func TestFlattenOrderAndLevels(t *testing.T) {
	tree := []*task.Node{
		node("A", task.StatusTodo,
			node("A1", task.StatusTodo, node("A1a", task.StatusTodo)),
			node("A2", task.StatusTodo),
		),
		node("B", task.StatusTodo, node("B1", task.StatusTodo)),
	}
	state := ExpansionSet{"A": {}, "A1": {}}

	rows := Flatten(tree, state)
	assert.Equal(t, []string{"A", "A1", "A1a", "A2", "B"}, rowIDs(rows))

	var levels []int
	for _, r := range rows {
		levels = append(levels, r.Level)
	}
	assert.Equal(t, []int{0, 1, 2, 1, 0}, levels)
	assert.Equal(t, 4, IndexOf(rows, "B"))
	assert.Equal(t, -1, IndexOf(rows, "B1"))
}

func TestFlattenCollapsedAncestorHidesExpandedDescendant(t *testing.T) {
	tree := []*task.Node{
		node("A", task.StatusTodo, node("A1", task.StatusTodo, node("A1a", task.StatusTodo))),
	}
	// A1 is expanded but A is not, so nothing below A shows.
	rows := Flatten(tree, ExpansionSet{"A1": {}})
	assert.Equal(t, []string{"A"}, rowIDs(rows))
}

func TestFlattenNilState(t *testing.T) {
	tree := []*task.Node{node("A", task.StatusTodo, node("B", task.StatusTodo)), node("C", task.StatusTodo)}
	assert.Equal(t, []string{"A", "C"}, rowIDs(Flatten(tree, nil)))
	assert.Empty(t, Flatten(nil, nil))
}

func TestToggleIsIdempotentInPairs(t *testing.T) {
	tree := []*task.Node{node("A", task.StatusTodo, node("B", task.StatusTodo))}
	store := NewExpansionStore()
	before := Flatten(tree, store)

	store.Toggle("A")
	store.Toggle("A")

	assert.Equal(t, before, Flatten(tree, store))
	assert.Equal(t, 0, store.Len())
}

func TestExpansionStoreOperations(t *testing.T) {
	tree := []*task.Node{
		node("A", task.StatusTodo, node("A1", task.StatusTodo, node("A1a", task.StatusTodo))),
		node("B", task.StatusTodo),
	}

	store := NewExpansionStore()
	store.ExpandAll(tree)
	assert.True(t, store.IsExpanded("A"))
	assert.True(t, store.IsExpanded("A1"))
	assert.False(t, store.IsExpanded("B"), "leaves are not recorded")
	assert.Equal(t, 2, store.Len())

	snap := store.Snapshot()
	store.Collapse("A")
	assert.False(t, store.IsExpanded("A"))
	assert.True(t, snap.IsExpanded("A"), "snapshot is detached")

	store.Expand("ghost")
	assert.True(t, store.IsExpanded("ghost"))
	assert.Equal(t, []string{"A", "B"}, rowIDs(Flatten(tree, store)))

	store.CollapseAll()
	assert.Equal(t, 0, store.Len())
}

func TestExpansionStoreNilReceiverPanics(t *testing.T) {
	var store *ExpansionStore
	assert.Panics(t, func() { store.Toggle("A") })
}

func TestExpansionStoreConcurrentToggles(t *testing.T) {
	store := NewExpansionStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Toggle(fmt.Sprintf("n%d", j))
				_ = store.Snapshot()
			}
		}()
	}
	wg.Wait()
	// Each id was toggled an even number of times.
	assert.Equal(t, 0, store.Len())
}

func TestAggregateIgnoresVisibility(t *testing.T) {
	tree := []*task.Node{
		node("A", task.StatusInProgress,
			node("A1", task.StatusDone),
			node("A2", task.StatusTodo, node("A2a", task.StatusDone)),
		),
	}
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local)

	collapsed := len(Flatten(tree, nil))
	store := NewExpansionStore()
	store.ExpandAll(tree)
	expanded := len(Flatten(tree, store))

	assert.Equal(t, 1, collapsed)
	assert.Equal(t, 4, expanded)
	assert.Equal(t, 4, task.AggregateAt(tree, now).Total)
}

func TestProject(t *testing.T) {
	slab := node("slab", task.StatusDone)
	slab.CostActual = ptr(100.0)
	roof := node("roof", task.StatusTodo)
	roof.CostActual = ptr(40.0)
	roof.PlannedEnd = ptr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local))
	house := node("house", task.StatusInProgress, slab, roof)
	house.CostActual = ptr(10.0)
	tree := []*task.Node{house, node("garden", task.StatusTodo)}

	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local)
	store := NewExpansionStore()
	store.Expand("house")

	p, err := Project(context.Background(), tree, Options{
		Predicate: doneOnly,
		State:     store.Snapshot(),
		Now:       now,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"house", "slab"}, rowIDs(p.Rows))
	assert.Equal(t, task.Summary{Total: 2, Completed: 1, InProgress: 1}, p.Filtered)
	assert.Equal(t, task.Summary{Total: 4, Completed: 1, InProgress: 1, Todo: 2, Delayed: 1}, p.Total)
	assert.Equal(t, 110.0, p.FilteredCosts.Actual)
	assert.Equal(t, 150.0, p.TotalCosts.Actual)
	assert.Equal(t, 10.0, p.RowCosts["house"].Actual)
	assert.NotNil(t, p.Find("slab"))
	assert.Nil(t, p.Find("roof"))

	p, err = Project(context.Background(), tree, Options{
		Predicate:   doneOnly,
		State:       store.Snapshot(),
		RollupCosts: true,
		Now:         now,
	})
	require.NoError(t, err)
	// Roll-ups cover the full subtree, including filtered-out children.
	assert.Equal(t, 150.0, p.RowCosts["house"].Actual)
	assert.Equal(t, 150.0, p.TotalCosts.Actual)
}

func TestProjectPropagatesPredicateErrors(t *testing.T) {
	tree := []*task.Node{node("A", task.StatusTodo)}
	boom := errors.New("boom")

	_, err := Project(context.Background(), tree, Options{
		Predicate: func(*task.Node) (bool, error) { return false, boom },
	})

	var tpe *task.TreeProcessingError
	require.ErrorAs(t, err, &tpe)
	assert.ErrorIs(t, err, boom)
}

func TestFlattenProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := genTree(t)
		store := NewExpansionStore()
		task.Walk(tree, func(n *task.Node, _ int) {
			if rapid.Bool().Draw(t, "expand") {
				store.Expand(n.ID)
			}
		})

		rows := Flatten(tree, store)
		visible := make(map[string]bool, len(rows))
		for _, r := range rows {
			visible[r.Node.ID] = true
		}

		// A row is visible exactly when every ancestor is expanded.
		var path []*task.Node
		task.Walk(tree, func(n *task.Node, depth int) {
			path = append(path[:depth], n)
			want := true
			for _, anc := range path[:depth] {
				if !store.IsExpanded(anc.ID) {
					want = false
				}
			}
			if visible[n.ID] != want {
				t.Fatalf("node %s visible=%v, want %v", n.ID, visible[n.ID], want)
			}
		})

		// Toggling any id twice leaves the projection unchanged.
		if len(rows) > 0 {
			id := rows[rapid.IntRange(0, len(rows)-1).Draw(t, "row")].Node.ID
			store.Toggle(id)
			store.Toggle(id)
			again := Flatten(tree, store)
			if fmt.Sprint(rowIDs(again)) != fmt.Sprint(rowIDs(rows)) {
				t.Fatalf("double toggle of %s changed rows", id)
			}
		}

		if task.Count(tree) != task.Aggregate(tree).Total {
			t.Fatalf("aggregate total differs from node count")
		}
	})
}

func genTree(t *rapid.T) []*task.Node {
	next := 0
	var build func(depth int) *task.Node
	build = func(depth int) *task.Node {
		next++
		n := node(fmt.Sprintf("n%d", next), rapid.SampledFrom(task.Statuses).Draw(t, "status"))
		if depth < 4 {
			for i := rapid.IntRange(0, 3).Draw(t, "children"); i > 0; i-- {
				n.Children = append(n.Children, build(depth+1))
			}
		}
		return n
	}
	roots := make([]*task.Node, rapid.IntRange(0, 4).Draw(t, "roots"))
	for i := range roots {
		roots[i] = build(0)
	}
	return roots
}

func ptr[T any](v T) *T {
	return &v
}
