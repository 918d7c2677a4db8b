package app

import (
	"context"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// ListQuery narrows the authoritative lead list fetched from the remote service.
type ListQuery struct {
	Status       domain.StageID
	AssignedTo   string
	Unassigned   bool
	AssignedToMe bool
	Search       string
	Limit        int
	Offset       int
}

// BulkUpdateResult is the server's accounting for one batched patch.
type BulkUpdateResult struct {
	Count   int
	Skipped int
	Message string
}

// EnrichResult is the outcome of one enrichment lookup; Email is empty when nothing was found.
type EnrichResult struct {
	Email string
}

// Remote is the board-scoped persistence and authorization collaborator.
type Remote interface {
	ListLeads(context.Context, ListQuery) ([]domain.Lead, error)
	UpdateLead(context.Context, domain.LeadID, domain.Patch) (domain.Lead, error)
	BulkUpdate(context.Context, []domain.LeadID, domain.Patch) (BulkUpdateResult, error)
	CreateLead(context.Context, domain.Lead) (domain.Lead, error)
	BulkDelete(context.Context, []domain.LeadID) (int, error)
	EnrichLead(context.Context, domain.LeadID) (EnrichResult, error)
	ListUsers(context.Context) ([]domain.User, error)
}
