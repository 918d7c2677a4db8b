// Package backend implements the lead service behind the board API: persistence,
// authorization, the server-side contact guard, and the audit log.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// DefaultListLimit caps a list query without an explicit limit.
const DefaultListLimit = 300

// DefaultAuditLimit caps an audit query without an explicit limit.
const DefaultAuditLimit = 50

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	StageSets []domain.StageSet
	Logger    app.Logger
}

// Service enforces the lead rules shared by every client.
type Service struct {
	repo   Repository
	clock  Clock
	stages map[domain.BoardType]domain.StageSet
	logger app.Logger
}

// NewService constructs a service. Boards without a configured stage set use the defaults.
func NewService(repo Repository, clock Clock, cfg ServiceConfig) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if clock == nil {
		clock = time.Now
	}
	stages := make(map[domain.BoardType]domain.StageSet, len(domain.BoardTypes()))
	for _, board := range domain.BoardTypes() {
		set, err := domain.DefaultStageSet(board)
		if err != nil {
			return nil, err
		}
		stages[board] = set
	}
	for _, set := range cfg.StageSets {
		stages[set.Board()] = set
	}
	var logger app.Logger = charmLog.New(io.Discard)
	if cfg.Logger != nil {
		logger = cfg.Logger
	}
	return &Service{repo: repo, clock: clock, stages: stages, logger: logger}, nil
}

// Stages returns the stage set of board.
func (s *Service) Stages(board domain.BoardType) (domain.StageSet, error) {
	set, ok := s.stages[board]
	if !ok {
		return domain.StageSet{}, reject(ErrNotFound, "Unknown board %q", board)
	}
	return set, nil
}

// Authenticate resolves a bearer token to an authorized user. Tokens are roll numbers.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, reject(ErrUnauthorized, "Not authenticated")
	}
	user, err := s.repo.GetUser(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return domain.User{}, reject(ErrUnauthorized, "Invalid token")
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SeedUsers upserts the configured user roster.
func (s *Service) SeedUsers(ctx context.Context, users []domain.User) error {
	for _, u := range users {
		user, err := domain.NewUser(u.RollNumber, u.Name, u.IsAdmin)
		if err != nil {
			return err
		}
		if err := s.repo.UpsertUser(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", user.RollNumber, err)
		}
	}
	return nil
}

// ListLeads lists leads of board, most recently updated first.
func (s *Service) ListLeads(ctx context.Context, actor domain.User, board domain.BoardType, q app.ListQuery) ([]domain.Lead, error) {
	if _, err := s.Stages(board); err != nil {
		return nil, err
	}
	if q.AssignedToMe {
		q.AssignedTo = actor.RollNumber
		q.AssignedToMe = false
	}
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.ListLeads(ctx, board, q)
}

// GetLead returns one lead.
func (s *Service) GetLead(ctx context.Context, board domain.BoardType, id domain.LeadID) (domain.Lead, error) {
	if _, err := s.Stages(board); err != nil {
		return domain.Lead{}, err
	}
	lead, err := s.repo.GetLead(ctx, board, id)
	if errors.Is(err, ErrNotFound) {
		return domain.Lead{}, reject(ErrNotFound, "%s not found", titleNoun(board))
	}
	return lead, err
}

// CreateLead stores a new lead in its requested or initial stage.
func (s *Service) CreateLead(ctx context.Context, actor domain.User, board domain.BoardType, lead domain.Lead) (domain.Lead, error) {
	set, err := s.Stages(board)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.ID = 0
	lead.Name = strings.TrimSpace(lead.Name)
	if lead.Name == "" {
		return domain.Lead{}, reject(ErrInvalidRequest, "Name is required")
	}
	if lead.Stage == "" {
		lead.Stage = set.Initial()
	}
	lead.Stage = domain.NormalizeStageID(string(lead.Stage))
	if err := s.checkStage(set, lead.Stage); err != nil {
		return domain.Lead{}, err
	}
	if err := s.checkGuard(set, lead); err != nil {
		return domain.Lead{}, err
	}
	if lead.Assigned() {
		lead.AssignedBy = actor.RollNumber
	}
	lead.UpdatedAt = s.clock().UTC()

	created, err := s.repo.CreateLead(ctx, board, lead, s.event(board, actor, domain.AuditAdd,
		fmt.Sprintf("Added %s %s to %s", singular(board), lead.Name, lead.Stage)))
	if err != nil {
		return domain.Lead{}, err
	}
	s.logger.Info("lead created", "board", board, "lead_id", created.ID, "user", actor.RollNumber)
	return created, nil
}

// UpdateLead applies a partial update to one lead, enforcing the contact guard on
// the lead as it would look afterwards.
func (s *Service) UpdateLead(ctx context.Context, actor domain.User, board domain.BoardType, id domain.LeadID, patch domain.Patch) (domain.Lead, error) {
	set, err := s.Stages(board)
	if err != nil {
		return domain.Lead{}, err
	}
	if patch.IsEmpty() {
		return domain.Lead{}, reject(ErrInvalidRequest, "No fields to update")
	}
	if patch.Stage != nil {
		if err := s.checkStage(set, *patch.Stage); err != nil {
			return domain.Lead{}, err
		}
	}
	lead, err := s.GetLead(ctx, board, id)
	if err != nil {
		return domain.Lead{}, err
	}
	next := s.apply(actor, lead, patch)
	if err := s.checkGuard(set, next); err != nil {
		return domain.Lead{}, err
	}

	action := domain.AuditUpdate
	details := fmt.Sprintf("Updated profile for %s", next.Name)
	if next.Stage != lead.Stage {
		action = domain.AuditMove
		details = fmt.Sprintf("Moved %s to %s", next.Name, next.Stage)
	}
	event := s.event(board, actor, action, details)
	event.LeadID = id
	if err := s.repo.UpdateLeads(ctx, board, []domain.Lead{next}, event); err != nil {
		return domain.Lead{}, err
	}
	s.logger.Debug("lead updated", "board", board, "lead_id", id, "fields", strings.Join(patch.Fields(), ","))
	return next, nil
}

// BulkUpdate applies one patch to many leads. A stage change is skipped for leads that
// lack contact information unless it targets the initial stage; missing ids are ignored.
func (s *Service) BulkUpdate(ctx context.Context, actor domain.User, board domain.BoardType, ids []domain.LeadID, patch domain.Patch) (app.BulkUpdateResult, error) {
	set, err := s.Stages(board)
	if err != nil {
		return app.BulkUpdateResult{}, err
	}
	ids = domain.NormalizeLeadIDs(ids)
	if len(ids) == 0 {
		return app.BulkUpdateResult{}, reject(ErrInvalidRequest, "No ids provided")
	}
	if patch.AssignedTo != nil && strings.EqualFold(strings.TrimSpace(*patch.AssignedTo), "nan") {
		patch.AssignedTo = nil
	}
	if !patch.IsEmpty() && !patch.Batchable() {
		return app.BulkUpdateResult{}, reject(ErrInvalidRequest, "Bulk updates may only change status, assignment, or bounty")
	}
	if patch.Stage != nil {
		if err := s.checkStage(set, *patch.Stage); err != nil {
			return app.BulkUpdateResult{}, err
		}
	}

	var (
		res     app.BulkUpdateResult
		updated []domain.Lead
	)
	for _, id := range ids {
		lead, err := s.repo.GetLead(ctx, board, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return app.BulkUpdateResult{}, err
		}
		if patch.Stage != nil && *patch.Stage != set.Initial() && set.ContactGuard() && !lead.HasContact() {
			res.Skipped++
			continue
		}
		updated = append(updated, s.apply(actor, lead, patch))
	}
	res.Count = len(updated)
	res.Message = fmt.Sprintf("Successfully updated %d %s. Skipped %d lacking email.", res.Count, board, res.Skipped)

	if len(updated) > 0 {
		event := s.event(board, actor, domain.AuditBulkUpdate,
			fmt.Sprintf("Updated %d %s (Skipped %d due to missing email)", res.Count, board, res.Skipped))
		if err := s.repo.UpdateLeads(ctx, board, updated, event); err != nil {
			return app.BulkUpdateResult{}, err
		}
	}
	s.logger.Info("bulk update applied", "board", board, "count", res.Count, "skipped", res.Skipped, "user", actor.RollNumber)
	return res, nil
}

// BulkDelete removes leads; only admins may delete.
func (s *Service) BulkDelete(ctx context.Context, actor domain.User, board domain.BoardType, ids []domain.LeadID) (int, string, error) {
	if _, err := s.Stages(board); err != nil {
		return 0, "", err
	}
	if !actor.IsAdmin {
		return 0, "", reject(ErrForbidden, "Admin access required")
	}
	ids = domain.NormalizeLeadIDs(ids)
	if len(ids) == 0 {
		return 0, "", reject(ErrInvalidRequest, "No ids provided")
	}
	preview := ids
	if len(preview) > 5 {
		preview = preview[:5]
	}
	count, err := s.repo.DeleteLeads(ctx, board, ids, s.event(board, actor, domain.AuditBulkDelete,
		fmt.Sprintf("Deleted %d %s (IDs: %v...)", len(ids), board, preview)))
	if err != nil {
		return 0, "", err
	}
	s.logger.Info("bulk delete applied", "board", board, "count", count, "user", actor.RollNumber)
	return count, fmt.Sprintf("Successfully deleted %d %s", count, board), nil
}

// Enrich fills in a lead's email from its stored details. It returns the email now on
// record, or an empty string when none could be found.
func (s *Service) Enrich(ctx context.Context, actor domain.User, board domain.BoardType, id domain.LeadID) (string, error) {
	lead, err := s.GetLead(ctx, board, id)
	if err != nil {
		return "", err
	}
	if lead.Email != "" {
		return lead.Email, nil
	}
	found := ""
	for _, key := range []string{"email", "contact_email", "contact"} {
		if v := strings.TrimSpace(lead.Details[key]); strings.Contains(v, "@") {
			found = v
			break
		}
	}
	if found == "" {
		return "", nil
	}
	lead.Email = found
	lead.UpdatedAt = s.clock().UTC()
	event := s.event(board, actor, domain.AuditEnrich, fmt.Sprintf("Found email for %s", lead.Name))
	event.LeadID = id
	if err := s.repo.UpdateLeads(ctx, board, []domain.Lead{lead}, event); err != nil {
		return "", err
	}
	return found, nil
}

// ListUsers lists the user roster; only admins may list it.
func (s *Service) ListUsers(ctx context.Context, actor domain.User) ([]domain.User, error) {
	if !actor.IsAdmin {
		return nil, reject(ErrForbidden, "Admin access required")
	}
	return s.repo.ListUsers(ctx)
}

// ListAudit lists recent audit events, newest first. An empty board lists every board.
func (s *Service) ListAudit(ctx context.Context, board domain.BoardType, limit int) ([]domain.AuditEvent, error) {
	if board != "" {
		if _, err := s.Stages(board); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	return s.repo.ListAudit(ctx, board, limit)
}

// apply merges patch into lead and stamps ownership and update time.
func (s *Service) apply(actor domain.User, lead domain.Lead, patch domain.Patch) domain.Lead {
	next := patch.Apply(lead)
	if patch.AssignedTo != nil && next.Assigned() {
		next.AssignedBy = actor.RollNumber
	}
	next.UpdatedAt = s.clock().UTC()
	return next
}

func (s *Service) checkStage(set domain.StageSet, stage domain.StageID) error {
	if !set.Contains(stage) {
		return reject(ErrInvalidRequest, "Unknown status %q", stage)
	}
	return nil
}

// checkGuard rejects a lead sitting outside the initial stage without contact information.
func (s *Service) checkGuard(set domain.StageSet, lead domain.Lead) error {
	if !set.ContactGuard() || lead.Stage == set.Initial() || lead.HasContact() {
		return nil
	}
	return reject(ErrGuardViolation,
		"Forbidden: Cannot progress beyond '%s' without an Email or Phone. Please add contact information first.",
		set.Label(set.Initial()))
}

func (s *Service) event(board domain.BoardType, actor domain.User, action domain.AuditAction, details string) domain.AuditEvent {
	name := actor.Name
	if name == "" {
		name = actor.RollNumber
	}
	return domain.AuditEvent{
		Board:      board,
		Action:     action,
		Actor:      name,
		Details:    details,
		OccurredAt: s.clock().UTC(),
	}
}

// singular returns the board's item noun, e.g. "speaker".
func singular(board domain.BoardType) string {
	return strings.TrimSuffix(string(board), "s")
}

func titleNoun(board domain.BoardType) string {
	noun := singular(board)
	if noun == "" {
		return "Lead"
	}
	return strings.ToUpper(noun[:1]) + noun[1:]
}
