package app

import (
	"context"
	"time"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// DefaultPollInterval is the fixed re-fetch cadence.
const DefaultPollInterval = 10 * time.Second

// PollingSync periodically reconciles the authoritative lead list into the store.
type PollingSync struct {
	remote    Remote
	store     *LeadStore
	query     ListQuery
	interval  time.Duration
	onRemoved func([]domain.LeadID)
	trigger   chan struct{}
	logger    Logger
}

// PollingOption configures a PollingSync.
type PollingOption func(*PollingSync)

// WithPollInterval sets the fixed poll interval.
func WithPollInterval(d time.Duration) PollingOption {
	return func(p *PollingSync) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollQuery sets the list filters used for every fetch.
func WithPollQuery(q ListQuery) PollingOption {
	return func(p *PollingSync) {
		p.query = q
	}
}

// WithRemovedHook is called with ids that disappeared from the server list.
func WithRemovedHook(fn func([]domain.LeadID)) PollingOption {
	return func(p *PollingSync) {
		p.onRemoved = fn
	}
}

// NewPollingSync constructs a poller.
func NewPollingSync(remote Remote, store *LeadStore, logger Logger, opts ...PollingOption) *PollingSync {
	p := &PollingSync{
		remote:   remote,
		store:    store,
		interval: DefaultPollInterval,
		trigger:  make(chan struct{}, 1),
		logger:   orDiscard(logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Query returns the list filters in use.
func (p *PollingSync) Query() ListQuery {
	return p.query
}

// SyncOnce fetches the list and replaces the store contents; last write wins per record.
func (p *PollingSync) SyncOnce(ctx context.Context) ([]domain.LeadID, error) {
	leads, err := p.remote.ListLeads(ctx, p.query)
	if err != nil {
		return nil, err
	}
	removed := p.store.Replace(leads)
	if len(removed) > 0 && p.onRemoved != nil {
		p.onRemoved(removed)
	}
	p.logger.Debug("lead list synced", "count", len(leads), "removed", len(removed))
	return removed, nil
}

// Trigger requests an immediate re-check, e.g. on focus; extra requests coalesce.
func (p *PollingSync) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done. Transient failures are logged and retried on the next
// tick; an expired authorization stops the loop and is returned.
func (p *PollingSync) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.trigger:
		}
		if _, err := p.SyncOnce(ctx); err != nil {
			if isAuthExpired(err) {
				p.logger.Error("polling stopped", "err", err)
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("poll failed", "err", err)
		}
	}
}
