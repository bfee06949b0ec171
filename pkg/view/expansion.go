// Package view turns a task tree into what a screen shows: the rows visible
// under the current expansion state, plus the summaries computed over the
// same snapshot.
package view

import (
	"sync"

	"github.com/vitorsm/construction-management-client/pkg/task"
)

// ExpansionState answers whether a node's children are shown.
type ExpansionState interface {
	IsExpanded(id string) bool
}

// ExpansionSet is an immutable set of expanded ids. The zero value has
// nothing expanded.
type ExpansionSet map[string]struct{}

// IsExpanded implements ExpansionState.
func (s ExpansionSet) IsExpanded(id string) bool {
	_, ok := s[id]
	return ok
}

// ExpansionStore tracks which nodes are expanded, keyed by node id. It is
// owned by one tree view; ids survive filter changes and refetches, and ids
// that no longer exist are harmless.
type ExpansionStore struct {
	mu       sync.RWMutex
	expanded map[string]struct{}
}

// NewExpansionStore returns a store with nothing expanded.
func NewExpansionStore() *ExpansionStore {
	return &ExpansionStore{expanded: make(map[string]struct{})}
}

// Toggle flips the expansion of id and returns the new state.
func (s *ExpansionStore) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expanded[id]; ok {
		delete(s.expanded, id)
		return false
	}
	s.expanded[id] = struct{}{}
	return true
}

// IsExpanded implements ExpansionState.
func (s *ExpansionStore) IsExpanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.expanded[id]
	return ok
}

// Expand marks id as expanded.
func (s *ExpansionStore) Expand(id string) {
	s.mu.Lock()
	s.expanded[id] = struct{}{}
	s.mu.Unlock()
}

// Collapse marks id as collapsed.
func (s *ExpansionStore) Collapse(id string) {
	s.mu.Lock()
	delete(s.expanded, id)
	s.mu.Unlock()
}

// ExpandAll expands every node in the tree that has children.
func (s *ExpansionStore) ExpandAll(roots []*task.Node) {
	var parents []string
	task.Walk(roots, func(n *task.Node, _ int) {
		if n.HasChildren() {
			parents = append(parents, n.ID)
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range parents {
		s.expanded[id] = struct{}{}
	}
}

// CollapseAll forgets every expanded id.
func (s *ExpansionStore) CollapseAll() {
	s.mu.Lock()
	clear(s.expanded)
	s.mu.Unlock()
}

// Len returns the number of expanded ids.
func (s *ExpansionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expanded)
}

// Snapshot returns a copy of the current state. A flatten pass over a
// snapshot is unaffected by toggles made while it runs.
func (s *ExpansionStore) Snapshot() ExpansionSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(ExpansionSet, len(s.expanded))
	for id := range s.expanded {
		out[id] = struct{}{}
	}
	return out
}
