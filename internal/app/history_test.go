package app

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

func contactLeads(n int) []domain.Lead {
	leads := make([]domain.Lead, 0, n)
	for i := 1; i <= n; i++ {
		leads = append(leads, domain.Lead{ID: domain.LeadID(i), Name: "lead", Stage: "SCOUTED", Email: "x@y.z"})
	}
	return leads
}

func stageSnapshot(store *LeadStore) map[domain.LeadID]domain.StageID {
	out := map[domain.LeadID]domain.StageID{}
	for _, lead := range store.List() {
		out[lead.ID] = lead.Stage
	}
	return out
}

func sameStages(a, b map[domain.LeadID]domain.StageID) bool {
	if len(a) != len(b) {
		return false
	}
	for id, stage := range a {
		if b[id] != stage {
			return false
		}
	}
	return true
}

func TestHistoryUndoRedoUndoProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		board, _ := newTestBoard(rt, true, contactLeads(3)...)
		stages := board.Stages().Stages()
		ctx := context.Background()

		moves := rapid.IntRange(1, 8).Draw(rt, "moves")
		for i := 0; i < moves; i++ {
			id := domain.LeadID(rapid.IntRange(1, 3).Draw(rt, "id"))
			stage := rapid.SampledFrom(stages).Draw(rt, "stage")
			if _, err := board.MoveLead(ctx, id, stage.ID); err != nil {
				rt.Fatalf("MoveLead() error = %v", err)
			}
		}
		if !board.History().CanUndo() {
			rt.Skip("no effective transitions")
		}

		if _, _, err := board.Undo(ctx); err != nil {
			rt.Fatalf("Undo() error = %v", err)
		}
		afterUndo := stageSnapshot(board.Store())
		if _, _, err := board.Redo(ctx); err != nil {
			rt.Fatalf("Redo() error = %v", err)
		}
		if _, _, err := board.Undo(ctx); err != nil {
			rt.Fatalf("Undo() error = %v", err)
		}
		if got := stageSnapshot(board.Store()); !sameStages(afterUndo, got) {
			rt.Fatalf("undo/redo/undo diverged: %v vs %v", afterUndo, got)
		}
	})
}

func TestHistoryRecordTruncatesRedoBranchProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ledger := NewHistoryLedger(NewMutator(NewLeadStore(), newFakeRemote(speakerStages(rt)), nil), 0, nil)
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		for i := 0; i < n; i++ {
			ledger.Record(domain.LeadID(i+1), "SCOUTED", "EMAIL_ADDED")
		}
		k := rapid.IntRange(0, n).Draw(rt, "undos")
		for i := 0; i < k; i++ {
			// Leads are absent from the store, so each undo is a soft failure that still moves the cursor.
			_, ok, _ := ledger.Undo(context.Background())
			if !ok {
				rt.Fatalf("Undo() %d reported nothing to undo", i)
			}
		}
		entry := ledger.Record(999, "SCOUTED", "DRAFTED")

		entries := ledger.Entries()
		if len(entries) != n-k+1 {
			rt.Fatalf("len(entries) = %d, want %d", len(entries), n-k+1)
		}
		if entries[len(entries)-1].Seq != entry.Seq || ledger.Cursor() != len(entries)-1 {
			rt.Fatalf("cursor %d does not point at the new entry", ledger.Cursor())
		}
		if ledger.CanRedo() {
			rt.Fatalf("no redo branch may survive a new record")
		}
	})
}

func TestHistoryUndoRedoBounds(t *testing.T) {
	board, remote := newTestBoard(t, true, contactLeads(1)...)
	ctx := context.Background()

	if _, ok, err := board.Undo(ctx); ok || err != nil {
		t.Fatalf("Undo() on empty ledger = %t, %v; want no-op", ok, err)
	}
	if _, err := board.MoveLead(ctx, 1, "RESEARCHED"); err != nil {
		t.Fatalf("MoveLead() error = %v", err)
	}
	if _, ok, err := board.Redo(ctx); ok || err != nil {
		t.Fatalf("Redo() at end = %t, %v; want no-op", ok, err)
	}

	entry, ok, err := board.Undo(ctx)
	if !ok || err != nil {
		t.Fatalf("Undo() = %t, %v", ok, err)
	}
	if entry.From != "SCOUTED" || entry.To != "RESEARCHED" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if lead := remote.lead(1); lead.Stage != "SCOUTED" {
		t.Fatalf("undo must persist remotely, remote stage = %q", lead.Stage)
	}
	if _, ok, _ := board.Undo(ctx); ok {
		t.Fatal("second Undo() must be a no-op")
	}
}

func TestHistoryUndoFailureKeepsCursorMoved(t *testing.T) {
	board, remote := newTestBoard(t, true, contactLeads(1)...)
	ctx := context.Background()
	if _, err := board.MoveLead(ctx, 1, "DRAFTED"); err != nil {
		t.Fatalf("MoveLead() error = %v", err)
	}

	remote.updateErr = errBoom
	_, ok, err := board.Undo(ctx)
	if !ok || !errors.Is(err, ErrRemoteWrite) {
		t.Fatalf("Undo() = %t, %v; want attempted remote failure", ok, err)
	}
	if board.History().Cursor() != -1 {
		t.Fatalf("cursor = %d, want -1 after failed undo", board.History().Cursor())
	}
	if lead, _ := board.Store().Get(1); lead.Stage != "DRAFTED" {
		t.Fatalf("failed undo must be rolled back locally, stage = %q", lead.Stage)
	}
	if !board.History().CanRedo() {
		t.Fatal("failed undo leaves the entry redo-able")
	}
}

func TestHistoryReplayAgainstMissingLeadIsSoftFailure(t *testing.T) {
	board, remote := newTestBoard(t, true, contactLeads(1)...)
	ctx := context.Background()
	if _, err := board.MoveLead(ctx, 1, "DRAFTED"); err != nil {
		t.Fatalf("MoveLead() error = %v", err)
	}
	board.Store().Remove(1)

	calls := remote.callCount()
	_, ok, err := board.Undo(ctx)
	if !ok || !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("Undo() = %t, %v; want soft ErrLeadNotFound", ok, err)
	}
	if remote.callCount() != calls {
		t.Fatal("undo against a missing lead must not call the remote")
	}
}

func TestHistoryLimitForgetRetractReset(t *testing.T) {
	ledger := NewHistoryLedger(nil, 3, nil)
	for i := 1; i <= 5; i++ {
		ledger.Record(domain.LeadID(i), "A", "B")
	}
	entries := ledger.Entries()
	if len(entries) != 3 || entries[0].LeadID != 3 || ledger.Cursor() != 2 {
		t.Fatalf("limit not applied: %+v cursor %d", entries, ledger.Cursor())
	}

	if n := ledger.Forget(4); n != 1 {
		t.Fatalf("Forget() = %d, want 1", n)
	}
	if ledger.Cursor() != 1 {
		t.Fatalf("cursor after forget = %d, want 1", ledger.Cursor())
	}
	last := ledger.Entries()[1]
	if !ledger.Retract(last.Seq) || ledger.Retract(last.Seq) {
		t.Fatal("Retract() must remove exactly once")
	}
	if ledger.Cursor() != 0 || len(ledger.Entries()) != 1 {
		t.Fatalf("unexpected state after retract: %+v cursor %d", ledger.Entries(), ledger.Cursor())
	}
	ledger.Reset()
	if ledger.CanUndo() || ledger.CanRedo() {
		t.Fatal("Reset() must empty the ledger")
	}
}
