package app

import (
	"context"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// TransitionOutcome reports what an individual edit did.
type TransitionOutcome struct {
	LeadID   domain.LeadID
	From     domain.StageID
	To       domain.StageID
	Moved    bool
	Recorded bool
	Entry    HistoryEntry
}

// StageTransitioner is the shared path for drag drops and manual single-lead edits:
// guard, optimistic apply, history record, then remote write.
type StageTransitioner struct {
	machine           StageMachine
	store             *LeadStore
	mutator           *Mutator
	history           *HistoryLedger
	retractOnRollback bool
	logger            Logger
}

// NewStageTransitioner constructs a transitioner. With retractOnRollback set, the history
// entry of a transition whose remote write fails is removed again.
func NewStageTransitioner(machine StageMachine, store *LeadStore, mutator *Mutator, history *HistoryLedger, retractOnRollback bool, logger Logger) *StageTransitioner {
	return &StageTransitioner{
		machine:           machine,
		store:             store,
		mutator:           mutator,
		history:           history,
		retractOnRollback: retractOnRollback,
		logger:            orDiscard(logger),
	}
}

// Transition moves one lead to target.
func (t *StageTransitioner) Transition(ctx context.Context, id domain.LeadID, target domain.StageID) (TransitionOutcome, error) {
	return t.Edit(ctx, id, domain.StagePatch(target))
}

// Edit applies patch to one lead. A stage change is validated against the lead as it
// would look after the rest of the patch, and recorded in history when it changes the stage.
func (t *StageTransitioner) Edit(ctx context.Context, id domain.LeadID, patch domain.Patch) (TransitionOutcome, error) {
	lead, ok := t.store.Get(id)
	if !ok {
		return TransitionOutcome{LeadID: id}, ErrLeadNotFound
	}
	out := TransitionOutcome{LeadID: id, From: lead.Stage, To: lead.Stage}
	if patch.Stage != nil && *patch.Stage == lead.Stage {
		patch = patch.WithoutStage()
	}
	if patch.IsEmpty() {
		return out, nil
	}

	if patch.Stage != nil {
		target := *patch.Stage
		candidate := patch.WithoutStage().Apply(lead)
		if err := t.machine.Validate(candidate, target); err != nil {
			t.logger.Info("stage transition rejected", "lead_id", id, "from", lead.Stage, "to", target, "err", err)
			return out, err
		}
		out.To = target
		out.Moved = true
	} else if patch.Email != nil || patch.Phone != nil {
		if err := t.machine.ValidateResting(patch.Apply(lead)); err != nil {
			t.logger.Info("lead edit rejected", "lead_id", id, "stage", lead.Stage, "err", err)
			return out, err
		}
	}

	pm, err := t.mutator.Begin(id, patch)
	if err != nil {
		return out, err
	}
	if out.Moved && t.history != nil {
		out.Entry = t.history.Record(id, out.From, out.To)
		out.Recorded = true
	}
	if err := t.mutator.Commit(ctx, pm); err != nil {
		if out.Recorded && t.retractOnRollback {
			t.history.Retract(out.Entry.Seq)
			out.Recorded = false
		}
		return out, err
	}
	if out.Moved {
		t.logger.Info("stage transition applied", "lead_id", id, "from", out.From, "to", out.To)
	}
	return out, nil
}
