package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

func TestPollingSyncOnceReplacesAndForgets(t *testing.T) {
	board, remote := newTestBoard(t, true, contactLeads(3)...)
	ctx := context.Background()
	if _, err := board.MoveLead(ctx, 3, "EMAIL_ADDED"); err != nil {
		t.Fatalf("MoveLead() error = %v", err)
	}
	board.Selection().Select(2, 3)

	remote.mu.Lock()
	delete(remote.leads, 3)
	remote.order = remote.order[:2]
	changed := remote.leads[1]
	changed.Stage = "CONNECTED"
	remote.leads[1] = changed
	remote.mu.Unlock()

	if err := board.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if board.Store().Len() != 2 {
		t.Fatalf("store len = %d, want 2", board.Store().Len())
	}
	if lead, _ := board.Store().Get(1); lead.Stage != "CONNECTED" {
		t.Fatalf("server value must win, got %q", lead.Stage)
	}
	if board.History().CanUndo() {
		t.Fatal("history entries for a vanished lead must be purged")
	}
	if ids := board.Selection().IDs(); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("selection = %v, want [2]", ids)
	}
}

func TestPollingSyncOnceFailureLeavesStore(t *testing.T) {
	board, remote := newTestBoard(t, true, contactLeads(2)...)
	remote.listErr = errBoom
	if err := board.Sync(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if board.Store().Len() != 2 {
		t.Fatal("failed poll must not touch the store")
	}
}

func TestPollingRunTriggerAndCancel(t *testing.T) {
	stages := speakerStages(t)
	remote := newFakeRemote(stages, contactLeads(1)...)
	store := NewLeadStore()
	poller := NewPollingSync(remote, store, nil, WithPollInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	poller.Trigger()
	poller.Trigger()
	deadline := time.Now().Add(2 * time.Second)
	for store.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("triggered poll never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop on cancel")
	}
}

func TestPollingRunTicksAndSurvivesTransientErrors(t *testing.T) {
	stages := speakerStages(t)
	remote := newFakeRemote(stages, contactLeads(1)...)
	remote.listErr = errBoom
	poller := NewPollingSync(remote, NewLeadStore(), nil, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for remote.callCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("poller stopped retrying after a transient failure")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestPollingRunStopsOnExpiredAuth(t *testing.T) {
	stages := speakerStages(t)
	remote := newFakeRemote(stages)
	remote.listErr = &RemoteError{StatusCode: 401, Detail: "Invalid token"}
	poller := NewPollingSync(remote, NewLeadStore(), nil, WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := poller.Run(ctx); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestPollingQueryIsForwarded(t *testing.T) {
	stages := speakerStages(t)
	remote := newFakeRemote(stages,
		domain.Lead{ID: 1, Name: "a", Stage: "SCOUTED"},
		domain.Lead{ID: 2, Name: "b", Stage: "LOCKED", Email: "b@x.y"},
	)
	store := NewLeadStore()
	poller := NewPollingSync(remote, store, nil, WithPollQuery(ListQuery{Status: "LOCKED"}))
	if _, err := poller.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}
	if ids := store.IDs(); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("ids = %v, want [2]", ids)
	}
}
