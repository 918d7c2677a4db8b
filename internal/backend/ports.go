package backend

import (
	"context"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// Repository persists leads, users, and the audit log for every board.
type Repository interface {
	ListLeads(context.Context, domain.BoardType, app.ListQuery) ([]domain.Lead, error)
	GetLead(context.Context, domain.BoardType, domain.LeadID) (domain.Lead, error)
	CreateLead(context.Context, domain.BoardType, domain.Lead, domain.AuditEvent) (domain.Lead, error)
	UpdateLeads(context.Context, domain.BoardType, []domain.Lead, domain.AuditEvent) error
	DeleteLeads(context.Context, domain.BoardType, []domain.LeadID, domain.AuditEvent) (int, error)
	GetUser(context.Context, string) (domain.User, error)
	ListUsers(context.Context) ([]domain.User, error)
	UpsertUser(context.Context, domain.User) error
	ListAudit(context.Context, domain.BoardType, int) ([]domain.AuditEvent, error)
}
