package app

import (
	"slices"
	"sync"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// SelectionSet tracks lead ids chosen for bulk action and whether select mode is on.
type SelectionSet struct {
	mu         sync.Mutex
	ids        map[domain.LeadID]struct{}
	selectMode bool
}

// NewSelectionSet constructs an empty selection.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{ids: map[domain.LeadID]struct{}{}}
}

// Select adds ids.
func (s *SelectionSet) Select(ids ...domain.LeadID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Deselect removes ids.
func (s *SelectionSet) Deselect(ids ...domain.LeadID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.ids, id)
	}
}

// Toggle flips one id and reports whether it is now selected.
func (s *SelectionSet) Toggle(id domain.LeadID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll replaces the selection with ids.
func (s *SelectionSet) SelectAll(ids []domain.LeadID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[domain.LeadID]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection.
func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *SelectionSet) IDs() []domain.LeadID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LeadID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Has reports whether id is selected.
func (s *SelectionSet) Has(id domain.LeadID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *SelectionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// SetSelectMode toggles select mode; leaving it clears the selection.
func (s *SelectionSet) SetSelectMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectMode = on
	if !on {
		clear(s.ids)
	}
}

// SelectMode reports whether select mode is on.
func (s *SelectionSet) SelectMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectMode
}
