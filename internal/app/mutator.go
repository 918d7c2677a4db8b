package app

import (
	"context"
	"errors"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// PendingMutation is an optimistic change already visible in the store but not yet persisted.
type PendingMutation struct {
	LeadID   domain.LeadID
	Patch    domain.Patch
	Snapshot domain.Lead
}

// Mutator applies patches to the store immediately and persists them remotely,
// restoring the full pre-change snapshot when the remote write fails.
// Concurrent mutations of one lead are not serialized; the last remote write wins.
type Mutator struct {
	store  *LeadStore
	remote Remote
	logger Logger
}

// NewMutator constructs an optimistic mutator.
func NewMutator(store *LeadStore, remote Remote, logger Logger) *Mutator {
	return &Mutator{
		store:  store,
		remote: remote,
		logger: orDiscard(logger),
	}
}

// Begin snapshots the lead and merges patch into the store synchronously.
func (m *Mutator) Begin(id domain.LeadID, patch domain.Patch) (PendingMutation, error) {
	if patch.IsEmpty() {
		return PendingMutation{}, domain.ErrEmptyPatch
	}
	snapshot, err := m.store.Merge(id, patch)
	if err != nil {
		return PendingMutation{}, err
	}
	return PendingMutation{LeadID: id, Patch: patch, Snapshot: snapshot}, nil
}

// Commit issues exactly one remote write for pm and rolls back on failure.
func (m *Mutator) Commit(ctx context.Context, pm PendingMutation) error {
	if _, err := m.remote.UpdateLead(ctx, pm.LeadID, pm.Patch); err != nil {
		restored := m.store.Restore(pm.Snapshot)
		m.logger.Warn("optimistic update rolled back", "lead_id", pm.LeadID, "fields", pm.Patch.Fields(), "restored", restored, "err", err)
		return &RemoteWriteError{
			LeadID: pm.LeadID,
			Detail: ErrorDetail(err),
			Err:    err,
		}
	}
	m.logger.Debug("optimistic update persisted", "lead_id", pm.LeadID, "fields", pm.Patch.Fields())
	return nil
}

// Apply runs Begin then Commit.
func (m *Mutator) Apply(ctx context.Context, id domain.LeadID, patch domain.Patch) error {
	pm, err := m.Begin(id, patch)
	if err != nil {
		return err
	}
	return m.Commit(ctx, pm)
}

// isAuthExpired reports whether err demands a session reset.
func isAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}
