package view

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vitorsm/construction-management-client/pkg/task"
)

// Options configures a projection.
type Options struct {
	Predicate   task.Predicate // nil shows everything
	State       ExpansionState // nil has nothing expanded
	RollupCosts bool           // per-row cost includes descendants
	Now         time.Time      // reference for delays; zero means wall clock
}

// Projection is everything a task screen needs from one tree snapshot.
type Projection struct {
	Tree          []*task.Node // filtered tree
	Rows          []Row
	Filtered      task.Summary
	Total         task.Summary
	FilteredCosts task.Cost
	TotalCosts    task.Cost
	// RowCosts holds the cost to show for each node of the filtered tree:
	// rolled up over the unfiltered subtree when RollupCosts is set, the
	// node's own cost otherwise.
	RowCosts map[string]task.Cost
}

// Project filters, flattens and aggregates roots. The unfiltered totals and
// the filtered chain run concurrently over the same immutable tree; the
// expansion state should be a snapshot when it can change concurrently.
func Project(ctx context.Context, roots []*task.Node, opts Options) (*Projection, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	p := &Projection{}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		p.Total = task.AggregateAt(roots, now)
		p.TotalCosts = task.Costs(roots)
		return nil
	})

	var rollup map[string]task.Cost
	if opts.RollupCosts {
		g.Go(func() error {
			rollup = task.RollupCosts(roots)
			return nil
		})
	}

	g.Go(func() error {
		filtered, err := task.Filter(roots, opts.Predicate)
		if err != nil {
			return err
		}
		p.Tree = filtered
		p.Rows = Flatten(filtered, opts.State)
		p.Filtered = task.AggregateAt(filtered, now)
		p.FilteredCosts = task.Costs(filtered)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.RowCosts = make(map[string]task.Cost, p.Filtered.Total)
	task.Walk(p.Tree, func(n *task.Node, _ int) {
		if rollup != nil {
			p.RowCosts[n.ID] = rollup[n.ID]
		} else {
			p.RowCosts[n.ID] = task.OwnCost(n)
		}
	})
	return p, nil
}

// Find returns the node with the given id in the filtered tree.
func (p *Projection) Find(id string) *task.Node {
	var found *task.Node
	task.Walk(p.Tree, func(n *task.Node, _ int) {
		if found == nil && n.ID == id {
			found = n
		}
	})
	return found
}
