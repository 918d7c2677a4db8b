package app

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// DefaultHistoryLimit caps the number of retained transitions.
const DefaultHistoryLimit = 100

// HistoryEntry records one successful individual stage transition.
type HistoryEntry struct {
	Seq    uint64
	LeadID domain.LeadID
	From   domain.StageID
	To     domain.StageID
}

// HistoryLedger is the session-local undo/redo log of stage transitions.
// Entries after the cursor are redo-able; the cursor is -1 when nothing can be undone.
type HistoryLedger struct {
	mu      sync.Mutex
	entries []HistoryEntry
	cursor  int
	limit   int
	nextSeq uint64

	mutator *Mutator
	logger  Logger
}

// NewHistoryLedger constructs an empty ledger replaying through mutator.
func NewHistoryLedger(mutator *Mutator, limit int, logger Logger) *HistoryLedger {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryLedger{
		cursor:  -1,
		limit:   limit,
		mutator: mutator,
		logger:  orDiscard(logger),
	}
}

// Record drops any redo branch, appends the transition, and moves the cursor onto it.
func (h *HistoryLedger) Record(leadID domain.LeadID, from, to domain.StageID) HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	entry := HistoryEntry{Seq: h.nextSeq, LeadID: leadID, From: from, To: to}
	h.entries = append(h.entries[:h.cursor+1], entry)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = slices.Delete(h.entries, 0, over)
	}
	h.cursor = len(h.entries) - 1
	return entry
}

// Undo reverses the transition at the cursor. The cursor moves before the remote
// write resolves and stays moved when the write fails; the failure is logged and returned.
func (h *HistoryLedger) Undo(ctx context.Context) (HistoryEntry, bool, error) {
	h.mu.Lock()
	if h.cursor < 0 {
		h.mu.Unlock()
		return HistoryEntry{}, false, nil
	}
	entry := h.entries[h.cursor]
	h.cursor--
	h.mu.Unlock()

	return entry, true, h.replay(ctx, "undo", entry, entry.From)
}

// Redo reapplies the transition after the cursor.
func (h *HistoryLedger) Redo(ctx context.Context) (HistoryEntry, bool, error) {
	h.mu.Lock()
	if h.cursor >= len(h.entries)-1 {
		h.mu.Unlock()
		return HistoryEntry{}, false, nil
	}
	h.cursor++
	entry := h.entries[h.cursor]
	h.mu.Unlock()

	return entry, true, h.replay(ctx, "redo", entry, entry.To)
}

// replay applies stage to the entry's lead through the optimistic mutator.
func (h *HistoryLedger) replay(ctx context.Context, op string, entry HistoryEntry, stage domain.StageID) error {
	err := h.mutator.Apply(ctx, entry.LeadID, domain.StagePatch(stage))
	switch {
	case err == nil:
		h.logger.Info("history "+op+" applied", "lead_id", entry.LeadID, "stage", stage)
		return nil
	case errors.Is(err, ErrLeadNotFound):
		h.logger.Warn("history "+op+" skipped", "lead_id", entry.LeadID, "err", err)
	default:
		h.logger.Warn("history "+op+" failed", "lead_id", entry.LeadID, "stage", stage, "err", err)
	}
	return err
}

// Retract removes the entry with seq, e.g. after its remote write was rolled back.
func (h *HistoryLedger) Retract(seq uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := slices.IndexFunc(h.entries, func(e HistoryEntry) bool { return e.Seq == seq })
	if idx < 0 {
		return false
	}
	h.removeAt(idx)
	return true
}

// Forget purges every entry referencing one of ids and returns how many were dropped.
func (h *HistoryLedger) Forget(ids ...domain.LeadID) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[domain.LeadID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	dropped := 0
	for idx := len(h.entries) - 1; idx >= 0; idx-- {
		if _, ok := drop[h.entries[idx].LeadID]; ok {
			h.removeAt(idx)
			dropped++
		}
	}
	return dropped
}

// removeAt deletes one entry and keeps the cursor on the same logical position.
func (h *HistoryLedger) removeAt(idx int) {
	h.entries = slices.Delete(h.entries, idx, idx+1)
	if idx <= h.cursor {
		h.cursor--
	}
}

// Reset clears all entries, e.g. when the board is unmounted or the user changes.
func (h *HistoryLedger) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.cursor = -1
}

// CanUndo reports whether an entry sits at or before the cursor.
func (h *HistoryLedger) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor >= 0
}

// CanRedo reports whether an entry sits after the cursor.
func (h *HistoryLedger) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < len(h.entries)-1
}

// Entries returns a copy of the log.
func (h *HistoryLedger) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.entries)
}

// Cursor returns the index of the last applied entry, or -1.
func (h *HistoryLedger) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}
