package app

import (
	"slices"
	"sync"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// StoreEventKind identifies the mutation a subscriber is notified about.
type StoreEventKind int

// StoreReplaced and related constants enumerate store notifications.
const (
	StoreReplaced StoreEventKind = iota
	StoreUpdated
	StoreRemoved
)

// String renders the event kind for logs.
func (k StoreEventKind) String() string {
	switch k {
	case StoreReplaced:
		return "replaced"
	case StoreUpdated:
		return "updated"
	case StoreRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// StoreEvent describes one committed store mutation.
type StoreEvent struct {
	Kind StoreEventKind
	IDs  []domain.LeadID
}

// LeadStore is the canonical in-memory lead collection for one board.
type LeadStore struct {
	mu    sync.RWMutex
	order []domain.LeadID
	leads map[domain.LeadID]domain.Lead

	subMu   sync.Mutex
	subs    map[int]func(StoreEvent)
	nextSub int
}

// NewLeadStore constructs an empty store.
func NewLeadStore() *LeadStore {
	return &LeadStore{
		leads: map[domain.LeadID]domain.Lead{},
		subs:  map[int]func(StoreEvent){},
	}
}

// Get returns a copy of one lead.
func (s *LeadStore) Get(id domain.LeadID) (domain.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, false
	}
	return lead.Clone(), true
}

// List returns copies of all leads in store order.
func (s *LeadStore) List() []domain.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Lead, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.leads[id].Clone())
	}
	return out
}

// IDs returns lead ids in store order.
func (s *LeadStore) IDs() []domain.LeadID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// IDsInStage returns ids of leads currently in stage.
func (s *LeadStore) IDsInStage(stage domain.StageID) []domain.LeadID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LeadID, 0)
	for _, id := range s.order {
		if s.leads[id].Stage == stage {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of leads held.
func (s *LeadStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Replace swaps in an authoritative list, last write wins per record, and returns ids no longer present.
func (s *LeadStore) Replace(leads []domain.Lead) []domain.LeadID {
	next := make(map[domain.LeadID]domain.Lead, len(leads))
	order := make([]domain.LeadID, 0, len(leads))
	for _, lead := range leads {
		if !lead.ID.Valid() {
			continue
		}
		if _, dup := next[lead.ID]; !dup {
			order = append(order, lead.ID)
		}
		next[lead.ID] = lead.Clone()
	}

	s.mu.Lock()
	removed := make([]domain.LeadID, 0)
	for _, id := range s.order {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}
	s.order = order
	s.leads = next
	s.mu.Unlock()

	s.notify(StoreEvent{Kind: StoreReplaced, IDs: slices.Clone(order)})
	return removed
}

// Upsert inserts a new lead at the front or overwrites an existing one in place.
func (s *LeadStore) Upsert(lead domain.Lead) error {
	if !lead.ID.Valid() {
		return domain.ErrInvalidID
	}
	s.mu.Lock()
	if _, ok := s.leads[lead.ID]; !ok {
		s.order = append([]domain.LeadID{lead.ID}, s.order...)
	}
	s.leads[lead.ID] = lead.Clone()
	s.mu.Unlock()

	s.notify(StoreEvent{Kind: StoreUpdated, IDs: []domain.LeadID{lead.ID}})
	return nil
}

// Merge applies patch to one lead and returns the pre-merge snapshot.
func (s *LeadStore) Merge(id domain.LeadID, patch domain.Patch) (domain.Lead, error) {
	s.mu.Lock()
	prev, ok := s.leads[id]
	if !ok {
		s.mu.Unlock()
		return domain.Lead{}, ErrLeadNotFound
	}
	s.leads[id] = patch.Apply(prev)
	s.mu.Unlock()

	s.notify(StoreEvent{Kind: StoreUpdated, IDs: []domain.LeadID{id}})
	return prev.Clone(), nil
}

// Restore writes a snapshot back over a lead that is still present.
func (s *LeadStore) Restore(snapshot domain.Lead) bool {
	s.mu.Lock()
	if _, ok := s.leads[snapshot.ID]; !ok {
		s.mu.Unlock()
		return false
	}
	s.leads[snapshot.ID] = snapshot.Clone()
	s.mu.Unlock()

	s.notify(StoreEvent{Kind: StoreUpdated, IDs: []domain.LeadID{snapshot.ID}})
	return true
}

// Remove splices leads out of the store and returns how many were present.
func (s *LeadStore) Remove(ids ...domain.LeadID) int {
	drop := make(map[domain.LeadID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	removed := make([]domain.LeadID, 0, len(ids))
	order := s.order[:0]
	for _, id := range s.order {
		if _, ok := drop[id]; ok {
			delete(s.leads, id)
			removed = append(removed, id)
			continue
		}
		order = append(order, id)
	}
	s.order = order
	s.mu.Unlock()

	if len(removed) > 0 {
		s.notify(StoreEvent{Kind: StoreRemoved, IDs: removed})
	}
	return len(removed)
}

// Subscribe registers fn for every committed mutation and returns an unsubscribe func.
func (s *LeadStore) Subscribe(fn func(StoreEvent)) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// notify delivers ev outside the data lock so subscribers may read the store.
func (s *LeadStore) notify(ev StoreEvent) {
	s.subMu.Lock()
	keys := make([]int, 0, len(s.subs))
	for key := range s.subs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	fns := make([]func(StoreEvent), 0, len(keys))
	for _, key := range keys {
		fns = append(fns, s.subs[key])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
