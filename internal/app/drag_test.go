package app

import (
	"context"
	"errors"
	"testing"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// dragBoard lays out three stage columns 100 wide with one card per lead at the top.
func dragBoard(t *testing.T, leads ...domain.Lead) (*Board, *fakeRemote) {
	t.Helper()
	board, remote := newTestBoard(t, true, leads...)
	drag := board.Drag()
	for idx, stage := range []domain.StageID{"SCOUTED", "EMAIL_ADDED", "CONTACT_INITIATED"} {
		drag.RegisterStageTarget(stage, Rect{X: float64(idx * 100), Y: 0, W: 100, H: 500})
	}
	return board, remote
}

func TestDragActivationThreshold(t *testing.T) {
	board, _ := dragBoard(t, contactLeads(1)...)
	drag := board.Drag()
	if err := drag.PointerDown(1, Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("PointerDown() error = %v", err)
	}
	if phase := drag.PointerMove(Point{X: 13, Y: 13}); phase != DragPressed {
		t.Fatalf("phase after 4.2px = %v, want pressed", phase)
	}
	if phase := drag.PointerMove(Point{X: 15, Y: 10}); phase != DragDragging {
		t.Fatalf("phase after 5px = %v, want dragging", phase)
	}
	drag.Cancel()
	if drag.Phase() != DragIdle {
		t.Fatal("Cancel() must return to idle")
	}
}

func TestDragClickWithoutActivationCancels(t *testing.T) {
	board, remote := dragBoard(t, contactLeads(1)...)
	drag := board.Drag()
	_ = drag.PointerDown(1, Point{X: 10, Y: 10})
	out, err := drag.PointerUp(context.Background(), Point{X: 150, Y: 10})
	if err != nil || out.Kind != DropCancelled {
		t.Fatalf("PointerUp() = %+v, %v; want cancelled", out, err)
	}
	if len(remote.updates) != 0 {
		t.Fatal("cancelled gesture must have no side effects")
	}
}

func TestDragDropOnStageContainer(t *testing.T) {
	board, _ := dragBoard(t, domain.Lead{ID: 2, Name: "Has Email", Stage: "SCOUTED", Email: "a@b.com"})
	drag := board.Drag()
	_ = drag.PointerDown(2, Point{X: 50, Y: 20})
	drag.PointerMove(Point{X: 150, Y: 20})
	out, err := drag.PointerUp(context.Background(), Point{X: 150, Y: 20})
	if err != nil {
		t.Fatalf("PointerUp() error = %v", err)
	}
	if out.Kind != DropMoved || out.From != "SCOUTED" || out.To != "EMAIL_ADDED" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if lead, _ := board.Store().Get(2); lead.Stage != "EMAIL_ADDED" {
		t.Fatalf("stage = %q", lead.Stage)
	}
	if drag.Phase() != DragIdle {
		t.Fatal("drop must return to idle")
	}
}

func TestDragDropOnCardInheritsStage(t *testing.T) {
	board, _ := dragBoard(t,
		domain.Lead{ID: 1, Name: "mover", Stage: "SCOUTED", Phone: "1"},
		domain.Lead{ID: 2, Name: "anchor", Stage: "CONNECTED", Email: "x@y.z"},
	)
	drag := board.Drag()
	// The anchor card sits over the SCOUTED column but belongs to CONNECTED.
	drag.RegisterCardTarget(2, Rect{X: 0, Y: 100, W: 100, H: 40})
	_ = drag.PointerDown(1, Point{X: 50, Y: 20})
	drag.PointerMove(Point{X: 50, Y: 110})
	out, err := drag.PointerUp(context.Background(), Point{X: 50, Y: 110})
	if err != nil || out.Kind != DropMoved || out.To != "CONNECTED" {
		t.Fatalf("PointerUp() = %+v, %v; want move to CONNECTED", out, err)
	}
}

func TestDragOutcomes(t *testing.T) {
	board, remote := dragBoard(t,
		domain.Lead{ID: 1, Name: "Lonely", Stage: "SCOUTED"},
		domain.Lead{ID: 2, Name: "Reachable", Stage: "SCOUTED", Email: "a@b.c"},
	)
	drag := board.Drag()
	ctx := context.Background()

	gesture := func(id domain.LeadID, to Point) (DropOutcome, error) {
		_ = drag.PointerDown(id, Point{X: 50, Y: 20})
		drag.PointerMove(to)
		return drag.PointerUp(ctx, to)
	}

	out, err := gesture(2, Point{X: 60, Y: 300})
	if err != nil || out.Kind != DropNoOp {
		t.Fatalf("same-stage drop = %+v, %v; want no-op", out, err)
	}

	out, err = gesture(2, Point{X: 900, Y: 20})
	if err != nil || out.Kind != DropCancelled {
		t.Fatalf("drop outside targets = %+v, %v; want cancelled", out, err)
	}

	out, err = gesture(1, Point{X: 250, Y: 20})
	if !errors.Is(err, domain.ErrTransitionBlocked) || out.Kind != DropRejected || out.Reason == "" {
		t.Fatalf("guarded drop = %+v, %v; want rejected", out, err)
	}

	remote.updateErr = errBoom
	out, err = gesture(2, Point{X: 250, Y: 20})
	if !errors.Is(err, ErrRemoteWrite) || out.Kind != DropFailed {
		t.Fatalf("failed write = %+v, %v; want failed", out, err)
	}
	if lead, _ := board.Store().Get(2); lead.Stage != "SCOUTED" {
		t.Fatalf("stage after failed drop = %q", lead.Stage)
	}
	if len(board.History().Entries()) != 0 {
		t.Fatal("only successful transitions stay recorded")
	}

	if err := drag.PointerDown(99, Point{}); err != ErrLeadNotFound {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}
