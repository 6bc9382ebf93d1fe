// Package pagestate owns the two pieces of mutable edit state that a
// document rebuild depends on: the page display order and the set of
// pages marked for removal or extraction.
//
// The selection set stores page numbers, not positions, so reordering
// never invalidates a selection; order always wins and stale positional
// indices cannot occur.
package pagestate

import (
	"fmt"
	"sort"
	"sync"
)

// OutOfRangeError reports a page number outside [1..N].
type OutOfRangeError struct {
	Page  int
	Pages int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("page %d out of range (document has %d pages)", e.Page, e.Pages)
}

// NotPermutationError reports a reorder payload that is not a true
// permutation of the current order. Reorder payloads cross a trust
// boundary from the client and are validated, not trusted.
type NotPermutationError struct {
	Reason string
}

func (e *NotPermutationError) Error() string {
	return fmt.Sprintf("invalid reorder: %s", e.Reason)
}

// State holds the page order and selection of one open document. All
// transitions are synchronous; the same call sequence always produces
// the same state.
type State struct {
	mu       sync.Mutex
	pages    int
	order    []int
	selected map[int]bool
}

// New creates state for an n-page document with natural order [1..n]
// and an empty selection.
func New(n int) *State {
	s := &State{pages: n, selected: make(map[int]bool)}
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i + 1
	}
	return s
}

// PageCount returns N.
func (s *State) PageCount() int { return s.pages }

// Toggle flips membership of page in the selection set: add if absent,
// remove if present. Toggling twice restores the prior state.
func (s *State) Toggle(page int) error {
	if page < 1 || page > s.pages {
		return &OutOfRangeError{Page: page, Pages: s.pages}
	}
	s.mu.Lock()
	if s.selected[page] {
		delete(s.selected, page)
	} else {
		s.selected[page] = true
	}
	s.mu.Unlock()
	return nil
}

// IsSelected reports selection membership.
func (s *State) IsSelected(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[page]
}

// SelectAll sets the selection to [1..N].
func (s *State) SelectAll() {
	s.mu.Lock()
	for p := 1; p <= s.pages; p++ {
		s.selected[p] = true
	}
	s.mu.Unlock()
}

// ClearSelection empties the selection set.
func (s *State) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[int]bool)
	s.mu.Unlock()
}

// Selected returns the selection in ascending page order.
func (s *State) Selected() []int {
	s.mu.Lock()
	pages := make([]int, 0, len(s.selected))
	for p := range s.selected {
		pages = append(pages, p)
	}
	s.mu.Unlock()
	sort.Ints(pages)
	return pages
}

// Order returns a copy of the current display order.
func (s *State) Order() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.order...)
}

// Reorder replaces the order wholesale with newOrder, which must be a
// true permutation of the current order.
func (s *State) Reorder(newOrder []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(newOrder) != len(s.order) {
		return &NotPermutationError{
			Reason: fmt.Sprintf("got %d pages, want %d", len(newOrder), len(s.order)),
		}
	}
	seen := make(map[int]bool, len(newOrder))
	for _, p := range newOrder {
		if p < 1 || p > s.pages {
			return &NotPermutationError{Reason: fmt.Sprintf("page %d out of range", p)}
		}
		if seen[p] {
			return &NotPermutationError{Reason: fmt.Sprintf("page %d duplicated", p)}
		}
		seen[p] = true
	}
	s.order = append(s.order[:0], newOrder...)
	return nil
}

// Snapshot is a frozen copy of order and selection taken when the user
// triggers a rebuild. Later edits do not affect an in-flight operation.
type Snapshot struct {
	Order    []int `json:"order"`
	Selected []int `json:"selected"`
}

// Snapshot captures the current order and selection.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{Order: append([]int(nil), s.order...)}
	for p := range s.selected {
		snap.Selected = append(snap.Selected, p)
	}
	s.mu.Unlock()
	sort.Ints(snap.Selected)
	return snap
}

// KeepAfterRemoval is the remove-path page plan: the display order with
// every selected page filtered out.
func (sn Snapshot) KeepAfterRemoval() []int {
	drop := make(map[int]bool, len(sn.Selected))
	for _, p := range sn.Selected {
		drop[p] = true
	}
	var keep []int
	for _, p := range sn.Order {
		if !drop[p] {
			keep = append(keep, p)
		}
	}
	return keep
}

// ExtractList is the extract-path page plan: the selected pages in
// ascending order, regardless of click order.
func (sn Snapshot) ExtractList() []int {
	out := append([]int(nil), sn.Selected...)
	sort.Ints(out)
	return out
}
