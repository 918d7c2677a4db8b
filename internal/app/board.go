package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// BoardConfig holds configuration for one board session.
type BoardConfig struct {
	Stages            domain.StageSet
	Query             ListQuery
	PollInterval      time.Duration
	HistoryLimit      int
	RetractOnRollback bool
}

// Board wires the synchronization core for one board type. Each board type runs its own instance.
type Board struct {
	stages     domain.StageSet
	remote     Remote
	logger     Logger
	store      *LeadStore
	machine    StageMachine
	mutator    *Mutator
	history    *HistoryLedger
	selection  *SelectionSet
	transition *StageTransitioner
	bulk       *BulkEngine
	drag       *DragController
	poller     *PollingSync

	mu    sync.RWMutex
	users []domain.User
}

// NewBoard constructs a board session over remote.
func NewBoard(remote Remote, cfg BoardConfig, logger Logger) *Board {
	logger = orDiscard(logger)
	b := &Board{
		stages:    cfg.Stages,
		remote:    remote,
		logger:    logger,
		store:     NewLeadStore(),
		machine:   NewStageMachine(cfg.Stages),
		selection: NewSelectionSet(),
	}
	b.mutator = NewMutator(b.store, remote, logger)
	b.history = NewHistoryLedger(b.mutator, cfg.HistoryLimit, logger)
	b.transition = NewStageTransitioner(b.machine, b.store, b.mutator, b.history, cfg.RetractOnRollback, logger)
	b.poller = NewPollingSync(remote, b.store, logger,
		WithPollInterval(cfg.PollInterval),
		WithPollQuery(cfg.Query),
		WithRemovedHook(b.forget),
	)
	b.bulk = NewBulkEngine(b.store, remote, b.selection, b.history, b.poller, logger)
	b.drag = NewDragController(b.store, b.transition)
	return b
}

// Stages returns the board's stage set.
func (b *Board) Stages() domain.StageSet { return b.stages }

// Store returns the lead store.
func (b *Board) Store() *LeadStore { return b.store }

// Machine returns the stage machine.
func (b *Board) Machine() StageMachine { return b.machine }

// History returns the undo/redo ledger.
func (b *Board) History() *HistoryLedger { return b.history }

// Selection returns the bulk selection.
func (b *Board) Selection() *SelectionSet { return b.selection }

// Drag returns the gesture controller.
func (b *Board) Drag() *DragController { return b.drag }

// Poller returns the polling sync.
func (b *Board) Poller() *PollingSync { return b.poller }

// Load fetches leads and users concurrently. Users are optional since only admins may list them.
func (b *Board) Load(ctx context.Context) error {
	var (
		leads []domain.Lead
		users []domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = b.remote.ListLeads(gctx, b.poller.Query())
		if err != nil {
			return fmt.Errorf("list leads: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = b.remote.ListUsers(gctx)
		if err != nil {
			if isAuthExpired(err) {
				return fmt.Errorf("list users: %w", err)
			}
			b.logger.Debug("user list unavailable", "err", err)
			users = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	b.forget(b.store.Replace(leads))
	b.mu.Lock()
	b.users = users
	b.mu.Unlock()
	b.logger.Info("board loaded", "board", b.stages.Board(), "count", len(leads), "users", len(users))
	return nil
}

// Users returns the users fetched by the last Load.
func (b *Board) Users() []domain.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.User(nil), b.users...)
}

// MoveLead moves one lead through the guarded, recorded path.
func (b *Board) MoveLead(ctx context.Context, id domain.LeadID, stage domain.StageID) (TransitionOutcome, error) {
	return b.transition.Transition(ctx, id, domain.NormalizeStageID(string(stage)))
}

// UpdateLead applies a manual single-lead edit.
func (b *Board) UpdateLead(ctx context.Context, id domain.LeadID, patch domain.Patch) (TransitionOutcome, error) {
	if patch.Stage != nil {
		stage := domain.NormalizeStageID(string(*patch.Stage))
		patch.Stage = &stage
	}
	return b.transition.Edit(ctx, id, patch)
}

// CreateLead validates a new lead, creates it remotely, and inserts the server record.
func (b *Board) CreateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	lead.Name = strings.TrimSpace(lead.Name)
	if lead.Name == "" {
		return domain.Lead{}, domain.ErrInvalidName
	}
	if lead.Stage == "" {
		lead.Stage = b.stages.Initial()
	}
	lead.Stage = domain.NormalizeStageID(string(lead.Stage))
	if err := b.machine.Validate(lead, lead.Stage); err != nil {
		return domain.Lead{}, err
	}
	created, err := b.remote.CreateLead(ctx, lead)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}
	if err := b.store.Upsert(created); err != nil {
		return domain.Lead{}, err
	}
	b.logger.Info("lead created", "lead_id", created.ID, "stage", created.Stage)
	return created, nil
}

// Undo reverses the last recorded transition.
func (b *Board) Undo(ctx context.Context) (HistoryEntry, bool, error) {
	return b.history.Undo(ctx)
}

// Redo reapplies the next recorded transition.
func (b *Board) Redo(ctx context.Context) (HistoryEntry, bool, error) {
	return b.history.Redo(ctx)
}

// RunBulk applies op to the current selection.
func (b *Board) RunBulk(ctx context.Context, op BulkOperation) (BulkResult, error) {
	return b.bulk.Run(ctx, b.selection.IDs(), op)
}

// Sync re-fetches the board now.
func (b *Board) Sync(ctx context.Context) error {
	_, err := b.poller.SyncOnce(ctx)
	return err
}

// Reset drops session-local state, e.g. when the user changes.
func (b *Board) Reset() {
	b.history.Reset()
	b.selection.SetSelectMode(false)
	b.store.Replace(nil)
	b.mu.Lock()
	b.users = nil
	b.mu.Unlock()
}

// forget purges deleted leads from the ledger and the selection.
func (b *Board) forget(ids []domain.LeadID) {
	if len(ids) == 0 {
		return
	}
	b.history.Forget(ids...)
	b.selection.Deselect(ids...)
}
