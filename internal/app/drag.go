package app

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// DefaultActivationDistance is how far the pointer must travel before a press becomes a drag.
const DefaultActivationDistance = 5.0

// Point is a pointer position.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned drop-target region.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Center returns the middle of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// DragPhase is the gesture state.
type DragPhase int

// DragIdle and related constants enumerate gesture states.
const (
	DragIdle DragPhase = iota
	DragPressed
	DragDragging
)

// DropKind classifies how a gesture ended.
type DropKind int

// DropCancelled and related constants enumerate gesture outcomes.
const (
	DropCancelled DropKind = iota
	DropNoOp
	DropRejected
	DropMoved
	DropFailed
)

// String renders the outcome kind.
func (k DropKind) String() string {
	switch k {
	case DropCancelled:
		return "cancelled"
	case DropNoOp:
		return "no-op"
	case DropRejected:
		return "rejected"
	case DropMoved:
		return "moved"
	case DropFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DropOutcome reports the result of one gesture.
type DropOutcome struct {
	Kind   DropKind
	LeadID domain.LeadID
	From   domain.StageID
	To     domain.StageID
	Reason string
}

type stageTarget struct {
	stage domain.StageID
	rect  Rect
}

type cardTarget struct {
	id   domain.LeadID
	rect Rect
}

// DragController turns raw pointer events into stage-transition requests.
// Idle -> Pressed -> Dragging -> (dropped | cancelled) -> Idle.
type DragController struct {
	mu         sync.Mutex
	store      *LeadStore
	transition *StageTransitioner
	activation float64

	stages []stageTarget
	cards  []cardTarget

	phase  DragPhase
	source domain.LeadID
	origin Point
}

// NewDragController constructs a gesture controller.
func NewDragController(store *LeadStore, transition *StageTransitioner) *DragController {
	return &DragController{
		store:      store,
		transition: transition,
		activation: DefaultActivationDistance,
	}
}

// RegisterStageTarget registers a stage container region.
func (d *DragController) RegisterStageTarget(stage domain.StageID, rect Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stages = append(d.stages, stageTarget{stage: stage, rect: rect})
}

// RegisterCardTarget registers a lead card region.
func (d *DragController) RegisterCardTarget(id domain.LeadID, rect Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cards = append(d.cards, cardTarget{id: id, rect: rect})
}

// ClearTargets drops every registered region, e.g. before a re-layout.
func (d *DragController) ClearTargets() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stages = nil
	d.cards = nil
}

// Phase returns the current gesture state.
func (d *DragController) Phase() DragPhase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// PointerDown presses on the card of lead id.
func (d *DragController) PointerDown(id domain.LeadID, p Point) error {
	if _, ok := d.store.Get(id); !ok {
		return ErrLeadNotFound
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phase = DragPressed
	d.source = id
	d.origin = p
	return nil
}

// PointerMove activates the drag once the pointer travelled the activation distance.
func (d *DragController) PointerMove(p Point) DragPhase {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == DragPressed && math.Hypot(p.X-d.origin.X, p.Y-d.origin.Y) >= d.activation {
		d.phase = DragDragging
	}
	return d.phase
}

// Cancel abandons the gesture with no side effects.
func (d *DragController) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// PointerUp drops at p. The target stage is the hit stage container, or the stage of the
// hit card. Dropping outside any target, or releasing before activation, cancels.
func (d *DragController) PointerUp(ctx context.Context, p Point) (DropOutcome, error) {
	d.mu.Lock()
	phase, source := d.phase, d.source
	target, hit := d.resolveTarget(p)
	d.reset()
	d.mu.Unlock()

	out := DropOutcome{Kind: DropCancelled, LeadID: source}
	if phase != DragDragging || !hit {
		return out, nil
	}
	lead, ok := d.store.Get(source)
	if !ok {
		return out, nil
	}
	out.From, out.To = lead.Stage, target
	if target == lead.Stage {
		out.Kind = DropNoOp
		return out, nil
	}

	_, err := d.transition.Transition(ctx, source, target)
	var transitionErr *TransitionError
	switch {
	case err == nil:
		out.Kind = DropMoved
		return out, nil
	case errors.As(err, &transitionErr):
		out.Kind = DropRejected
		out.Reason = transitionErr.Reason
	default:
		out.Kind = DropFailed
		out.Reason = ErrorDetail(err)
	}
	return out, err
}

// resolveTarget hit-tests cards before stage containers. Caller holds mu.
func (d *DragController) resolveTarget(p Point) (domain.StageID, bool) {
	for _, card := range d.cards {
		if card.id == d.source || !card.rect.Contains(p) {
			continue
		}
		if lead, ok := d.store.Get(card.id); ok {
			return lead.Stage, true
		}
	}
	for _, stage := range d.stages {
		if stage.rect.Contains(p) {
			return stage.stage, true
		}
	}
	return "", false
}

// reset returns to Idle. Caller holds mu.
func (d *DragController) reset() {
	d.phase = DragIdle
	d.source = 0
	d.origin = Point{}
}
