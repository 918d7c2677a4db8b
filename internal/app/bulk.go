package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// BulkKind selects the bulk execution mode.
type BulkKind string

// BulkPatch and related constants enumerate bulk modes.
const (
	BulkPatch  BulkKind = "patch"
	BulkDivide BulkKind = "divide"
	BulkEnrich BulkKind = "enrich"
	BulkDelete BulkKind = "delete"
)

// BulkOperation describes one bulk action; build it with the *Operation constructors.
type BulkOperation struct {
	Kind  BulkKind
	Patch domain.Patch
	Users []string
}

// PatchOperation applies one shared patch through a single batched call.
func PatchOperation(patch domain.Patch) BulkOperation {
	return BulkOperation{Kind: BulkPatch, Patch: patch}
}

// DivideOperation splits the ids evenly across users, one batched assignment per user.
func DivideOperation(users ...string) BulkOperation {
	return BulkOperation{Kind: BulkDivide, Users: users}
}

// EnrichOperation runs one enrichment lookup per id.
func EnrichOperation() BulkOperation {
	return BulkOperation{Kind: BulkEnrich}
}

// DeleteOperation removes the ids remotely. Callers must confirm before running it.
func DeleteOperation() BulkOperation {
	return BulkOperation{Kind: BulkDelete}
}

// BulkFailure names one failed subject (a user or a lead) and the reason.
type BulkFailure struct {
	Subject string
	Reason  string
}

// BulkResult is the accounting for one bulk invocation.
type BulkResult struct {
	Kind     BulkKind
	Count    int
	Skipped  int
	Failures []BulkFailure
	Message  string
}

// FailureReport joins failures as "subject: reason" lines.
func (r BulkResult) FailureReport() string {
	lines := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		lines = append(lines, f.Subject+": "+f.Reason)
	}
	return strings.Join(lines, "\n")
}

// Partition is one user's share of a division.
type Partition struct {
	User string
	IDs  []domain.LeadID
}

// Divide splits ids across users by size only: the first len(ids)%len(users)
// users receive one extra id. Order of ids and users is preserved.
func Divide(ids []domain.LeadID, users []string) []Partition {
	if len(users) == 0 {
		return nil
	}
	base := len(ids) / len(users)
	remainder := len(ids) % len(users)
	out := make([]Partition, 0, len(users))
	start := 0
	for idx, user := range users {
		size := base
		if idx < remainder {
			size++
		}
		out = append(out, Partition{User: user, IDs: append([]domain.LeadID(nil), ids[start:start+size]...)})
		start += size
	}
	return out
}

// Syncer re-fetches the authoritative list into the store.
type Syncer interface {
	SyncOnce(context.Context) ([]domain.LeadID, error)
}

// BulkEngine applies one action across many leads with per-item accounting.
// Bulk actions bypass the history ledger.
type BulkEngine struct {
	store     *LeadStore
	remote    Remote
	selection *SelectionSet
	history   *HistoryLedger
	sync      Syncer
	logger    Logger
}

// NewBulkEngine constructs a bulk engine.
func NewBulkEngine(store *LeadStore, remote Remote, selection *SelectionSet, history *HistoryLedger, sync Syncer, logger Logger) *BulkEngine {
	return &BulkEngine{
		store:     store,
		remote:    remote,
		selection: selection,
		history:   history,
		sync:      sync,
		logger:    orDiscard(logger),
	}
}

// Run executes op over ids. Pre-flight rejections return before any remote call and
// leave the selection untouched; otherwise the selection is cleared and select mode
// exited once the operation settles, whether or not parts of it failed.
func (e *BulkEngine) Run(ctx context.Context, ids []domain.LeadID, op BulkOperation) (BulkResult, error) {
	ids = domain.NormalizeLeadIDs(ids)
	if len(ids) == 0 {
		return BulkResult{Kind: op.Kind}, ErrEmptySelection
	}
	var users []string
	switch op.Kind {
	case BulkPatch:
		if !op.Patch.Batchable() {
			return BulkResult{Kind: op.Kind}, fmt.Errorf("%w: %s", ErrInvalidBulkPatch, strings.Join(op.Patch.Fields(), ", "))
		}
	case BulkDivide:
		users = domain.NormalizeUserIDs(op.Users)
		if len(users) == 0 {
			return BulkResult{Kind: op.Kind}, ErrNoTargetUsers
		}
	case BulkEnrich, BulkDelete:
	default:
		return BulkResult{Kind: op.Kind}, fmt.Errorf("unsupported bulk operation %q", op.Kind)
	}

	defer func() {
		e.selection.Clear()
		e.selection.SetSelectMode(false)
	}()

	e.logger.Info("bulk operation start", "kind", op.Kind, "count", len(ids))
	var (
		result BulkResult
		err    error
	)
	switch op.Kind {
	case BulkPatch:
		result, err = e.runPatch(ctx, ids, op.Patch)
	case BulkDivide:
		result, err = e.runDivide(ctx, ids, users)
	case BulkEnrich:
		result, err = e.runEnrich(ctx, ids)
	case BulkDelete:
		result, err = e.runDelete(ctx, ids)
	}
	if err != nil {
		e.logger.Warn("bulk operation failed", "kind", op.Kind, "count", result.Count, "skipped", result.Skipped, "err", err)
		return result, err
	}
	e.logger.Info("bulk operation complete", "kind", op.Kind, "count", result.Count, "skipped", result.Skipped)
	return result, nil
}

// runPatch issues one batched call and refreshes from the server, which owns skip decisions.
func (e *BulkEngine) runPatch(ctx context.Context, ids []domain.LeadID, patch domain.Patch) (BulkResult, error) {
	result := BulkResult{Kind: BulkPatch}
	res, err := e.remote.BulkUpdate(ctx, ids, patch)
	if err != nil {
		result.Failures = append(result.Failures, BulkFailure{Subject: "bulk update", Reason: ErrorDetail(err)})
		result.Message = "Bulk update failed: " + ErrorDetail(err)
		return result, fmt.Errorf("bulk update: %w", err)
	}
	result.Count = res.Count
	result.Skipped = res.Skipped
	result.Message = strings.TrimSpace(res.Message)
	if result.Message == "" {
		result.Message = fmt.Sprintf("Updated %d %s. Skipped %d lacking required contact information.", res.Count, plural(res.Count, "lead"), res.Skipped)
	}
	e.refresh(ctx)
	return result, nil
}

// runDivide assigns each partition with its own call, strictly in user order.
func (e *BulkEngine) runDivide(ctx context.Context, ids []domain.LeadID, users []string) (BulkResult, error) {
	result := BulkResult{Kind: BulkDivide}
	for _, part := range Divide(ids, users) {
		if len(part.IDs) == 0 {
			continue
		}
		res, err := e.remote.BulkUpdate(ctx, part.IDs, domain.AssignPatch(part.User))
		if err != nil {
			if isAuthExpired(err) {
				return result, err
			}
			e.logger.Warn("bulk division partition failed", "user", part.User, "count", len(part.IDs), "err", err)
			result.Failures = append(result.Failures, BulkFailure{Subject: part.User, Reason: ErrorDetail(err)})
			continue
		}
		result.Count += res.Count
		result.Skipped += res.Skipped
	}
	result.Message = fmt.Sprintf("Divided %d %s across %d %s.", result.Count, plural(result.Count, "lead"), len(users), plural(len(users), "user"))
	e.refresh(ctx)
	if len(result.Failures) > 0 {
		result.Message += fmt.Sprintf(" %d of %d assignments failed.", len(result.Failures), min(len(users), len(ids)))
		return result, fmt.Errorf("%w:\n%s", ErrPartialBulkFailure, result.FailureReport())
	}
	return result, nil
}

// runEnrich looks up each id in sequence; one failure does not stop the rest.
func (e *BulkEngine) runEnrich(ctx context.Context, ids []domain.LeadID) (BulkResult, error) {
	result := BulkResult{Kind: BulkEnrich}
	for _, id := range ids {
		res, err := e.remote.EnrichLead(ctx, id)
		if err != nil {
			if isAuthExpired(err) {
				return result, err
			}
			e.logger.Warn("lead enrichment failed", "lead_id", id, "err", err)
			result.Failures = append(result.Failures, BulkFailure{Subject: e.subject(id), Reason: ErrorDetail(err)})
			continue
		}
		email := strings.TrimSpace(res.Email)
		if email == "" {
			result.Skipped++
			continue
		}
		result.Count++
		if _, err := e.store.Merge(id, domain.Patch{Email: &email}); err != nil {
			e.logger.Debug("enriched lead not in store", "lead_id", id)
		}
	}
	result.Message = fmt.Sprintf("Enriched %d of %d %s. %d without a match.", result.Count, len(ids), plural(len(ids), "lead"), result.Skipped)
	if len(result.Failures) > 0 {
		return result, fmt.Errorf("%w:\n%s", ErrPartialBulkFailure, result.FailureReport())
	}
	return result, nil
}

// runDelete removes ids remotely, then splices them out of the store and the ledger.
func (e *BulkEngine) runDelete(ctx context.Context, ids []domain.LeadID) (BulkResult, error) {
	result := BulkResult{Kind: BulkDelete}
	count, err := e.remote.BulkDelete(ctx, ids)
	if err != nil {
		result.Failures = append(result.Failures, BulkFailure{Subject: "bulk delete", Reason: ErrorDetail(err)})
		result.Message = "Bulk delete failed: " + ErrorDetail(err)
		return result, fmt.Errorf("bulk delete: %w", err)
	}
	e.store.Remove(ids...)
	if e.history != nil {
		e.history.Forget(ids...)
	}
	result.Count = count
	result.Message = fmt.Sprintf("Deleted %d %s.", count, plural(count, "lead"))
	return result, nil
}

// refresh re-fetches the board; a failure is logged since the next poll reconciles.
func (e *BulkEngine) refresh(ctx context.Context) {
	if e.sync == nil {
		return
	}
	if _, err := e.sync.SyncOnce(ctx); err != nil {
		e.logger.Warn("post-bulk refresh failed", "err", err)
	}
}

// subject names a lead for failure reports.
func (e *BulkEngine) subject(id domain.LeadID) string {
	if lead, ok := e.store.Get(id); ok {
		return leadName(lead)
	}
	return fmt.Sprintf("#%d", id)
}

// plural appends "s" to noun unless n is one.
func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
