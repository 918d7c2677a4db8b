package app

import (
	"fmt"
	"strings"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// Decision is the outcome of a transition check; Reason is set when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
}

// StageMachine validates stage transitions against one board's stage set.
type StageMachine struct {
	stages domain.StageSet
}

// NewStageMachine constructs a stateless transition validator.
func NewStageMachine(stages domain.StageSet) StageMachine {
	return StageMachine{stages: stages}
}

// Stages returns the stage set this machine validates against.
func (m StageMachine) Stages() domain.StageSet {
	return m.stages
}

// Initial returns the stage new leads start in.
func (m StageMachine) Initial() domain.StageID {
	return m.stages.Initial()
}

// CanTransition reports whether lead may enter target given its current field values.
// Entering the initial stage is always allowed; any other stage needs an email or phone
// when the board enables the contact guard. Stage order is not enforced.
func (m StageMachine) CanTransition(lead domain.Lead, target domain.StageID) Decision {
	label := m.stages.Label(target)
	if !m.stages.Contains(target) {
		return Decision{
			Reason: fmt.Sprintf("Cannot move %q to %q. Reason: unknown stage for the %s board.", leadName(lead), label, m.stages.Board()),
		}
	}
	if target == m.stages.Initial() {
		return Decision{Allowed: true}
	}
	if m.stages.ContactGuard() && !lead.HasContact() {
		return Decision{
			Reason: fmt.Sprintf("Cannot move %q to %q. Reason: Contact information (Email or Phone) is missing.", leadName(lead), label),
		}
	}
	return Decision{Allowed: true}
}

// Validate is CanTransition expressed as an error.
func (m StageMachine) Validate(lead domain.Lead, target domain.StageID) error {
	decision := m.CanTransition(lead, target)
	if decision.Allowed {
		return nil
	}
	return &TransitionError{
		LeadID: lead.ID,
		Target: target,
		Reason: decision.Reason,
	}
}

// ValidateResting rejects a lead whose own field values break the contact guard in
// the stage it already occupies, e.g. after an edit clears its last contact channel.
func (m StageMachine) ValidateResting(lead domain.Lead) error {
	if lead.Stage == m.stages.Initial() || !m.stages.ContactGuard() || lead.HasContact() {
		return nil
	}
	return &TransitionError{
		LeadID: lead.ID,
		Target: lead.Stage,
		Reason: fmt.Sprintf("Cannot update %q in %q. Reason: Contact information (Email or Phone) is required outside %q.",
			leadName(lead), m.stages.Label(lead.Stage), m.stages.Label(m.stages.Initial())),
	}
}

// leadName returns a display name for messages.
func leadName(lead domain.Lead) string {
	if name := strings.TrimSpace(lead.Name); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", lead.ID)
}
