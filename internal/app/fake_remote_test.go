package app

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// fakeRemote mimics the persistence service: it owns its own copy of every lead
// and applies the server-side bulk skip rule.
type fakeRemote struct {
	mu     sync.Mutex
	stages domain.StageSet
	leads  map[domain.LeadID]domain.Lead
	order  []domain.LeadID
	users  []domain.User
	nextID domain.LeadID

	listErr    error
	usersErr   error
	updateErr  error
	bulkErr    error
	bulkErrFor map[string]error
	deleteErr  error
	enrich     map[domain.LeadID]string
	enrichErr  map[domain.LeadID]error

	calls       []string
	updates     []domain.Patch
	bulkIDs     [][]domain.LeadID
	bulkPatches []domain.Patch
	enrichIDs   []domain.LeadID
}

func newFakeRemote(stages domain.StageSet, leads ...domain.Lead) *fakeRemote {
	f := &fakeRemote{
		stages:     stages,
		leads:      map[domain.LeadID]domain.Lead{},
		bulkErrFor: map[string]error{},
		enrich:     map[domain.LeadID]string{},
		enrichErr:  map[domain.LeadID]error{},
	}
	for _, lead := range leads {
		f.put(lead)
	}
	return f
}

func (f *fakeRemote) put(lead domain.Lead) {
	if _, ok := f.leads[lead.ID]; !ok {
		f.order = append(f.order, lead.ID)
	}
	f.leads[lead.ID] = lead.Clone()
	if lead.ID > f.nextID {
		f.nextID = lead.ID
	}
}

func (f *fakeRemote) lead(id domain.LeadID) domain.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leads[id].Clone()
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) ListLeads(_ context.Context, q ListQuery) ([]domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Lead, 0, len(f.order))
	for _, id := range f.order {
		lead := f.leads[id]
		if q.Status != "" && lead.Stage != q.Status {
			continue
		}
		out = append(out, lead.Clone())
	}
	return out, nil
}

func (f *fakeRemote) UpdateLead(_ context.Context, id domain.LeadID, patch domain.Patch) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update")
	f.updates = append(f.updates, patch)
	if f.updateErr != nil {
		return domain.Lead{}, f.updateErr
	}
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, &RemoteError{StatusCode: 404, Detail: "Lead not found"}
	}
	lead = patch.Apply(lead)
	f.leads[id] = lead
	return lead.Clone(), nil
}

func (f *fakeRemote) BulkUpdate(_ context.Context, ids []domain.LeadID, patch domain.Patch) (BulkUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "bulk")
	f.bulkIDs = append(f.bulkIDs, slices.Clone(ids))
	f.bulkPatches = append(f.bulkPatches, patch)
	if f.bulkErr != nil {
		return BulkUpdateResult{}, f.bulkErr
	}
	if patch.AssignedTo != nil {
		if err := f.bulkErrFor[*patch.AssignedTo]; err != nil {
			return BulkUpdateResult{}, err
		}
	}
	var res BulkUpdateResult
	for _, id := range ids {
		lead, ok := f.leads[id]
		if !ok {
			continue
		}
		if patch.Stage != nil && *patch.Stage != f.stages.Initial() && f.stages.ContactGuard() && !lead.HasContact() {
			res.Skipped++
			continue
		}
		f.leads[id] = patch.Apply(lead)
		res.Count++
	}
	return res, nil
}

func (f *fakeRemote) CreateLead(_ context.Context, lead domain.Lead) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	f.nextID++
	lead.ID = f.nextID
	f.order = append([]domain.LeadID{lead.ID}, f.order...)
	f.leads[lead.ID] = lead.Clone()
	return lead, nil
}

func (f *fakeRemote) BulkDelete(_ context.Context, ids []domain.LeadID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete")
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	count := 0
	for _, id := range ids {
		if _, ok := f.leads[id]; !ok {
			continue
		}
		delete(f.leads, id)
		f.order = slices.DeleteFunc(f.order, func(v domain.LeadID) bool { return v == id })
		count++
	}
	return count, nil
}

func (f *fakeRemote) EnrichLead(_ context.Context, id domain.LeadID) (EnrichResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "enrich")
	f.enrichIDs = append(f.enrichIDs, id)
	if err := f.enrichErr[id]; err != nil {
		return EnrichResult{}, err
	}
	email := f.enrich[id]
	if email != "" {
		if lead, ok := f.leads[id]; ok {
			lead.Email = email
			f.leads[id] = lead
		}
	}
	return EnrichResult{Email: email}, nil
}

func (f *fakeRemote) ListUsers(context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "users")
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return slices.Clone(f.users), nil
}

var errBoom = errors.New("boom")

// fataler is satisfied by both *testing.T and *rapid.T.
type fataler interface {
	Fatalf(format string, args ...any)
}

func speakerStages(t fataler) domain.StageSet {
	set, err := domain.DefaultStageSet(domain.BoardSpeakers)
	if err != nil {
		t.Fatalf("DefaultStageSet() error = %v", err)
	}
	return set
}

// newTestBoard builds a loaded board over a fake remote seeded with leads.
func newTestBoard(t fataler, retract bool, leads ...domain.Lead) (*Board, *fakeRemote) {
	stages := speakerStages(t)
	remote := newFakeRemote(stages, leads...)
	board := NewBoard(remote, BoardConfig{Stages: stages, RetractOnRollback: retract}, nil)
	if err := board.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return board, remote
}
