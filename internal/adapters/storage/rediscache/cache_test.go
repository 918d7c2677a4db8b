package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/backend"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// stubRepo counts listing calls; embedded nil methods panic if reached.
type stubRepo struct {
	backend.Repository
	leads    []domain.Lead
	listErr  error
	lists    int
	updates  int
	lastList app.ListQuery
}

func (s *stubRepo) ListLeads(_ context.Context, _ domain.BoardType, q app.ListQuery) ([]domain.Lead, error) {
	s.lists++
	s.lastList = q
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.Lead(nil), s.leads...), nil
}

func (s *stubRepo) UpdateLeads(context.Context, domain.BoardType, []domain.Lead, domain.AuditEvent) error {
	s.updates++
	return nil
}

func newTestCache(t *testing.T, base *stubRepo, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(base, client, ttl), mr
}

var defaultQuery = app.ListQuery{Limit: backend.DefaultListLimit}

func TestCacheListLeadsMissThenHit(t *testing.T) {
	updated := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	base := &stubRepo{leads: []domain.Lead{{ID: 1, Name: "Ada", Stage: "SCOUTED", Email: "a@x", UpdatedAt: updated}}}
	cache, mr := newTestCache(t, base, time.Minute)
	ctx := context.Background()

	for range 2 {
		leads, err := cache.ListLeads(ctx, domain.BoardSpeakers, defaultQuery)
		if err != nil {
			t.Fatalf("ListLeads() error = %v", err)
		}
		if len(leads) != 1 || !leads[0].Equal(base.leads[0]) {
			t.Fatalf("unexpected leads %+v", leads)
		}
	}
	if base.lists != 1 {
		t.Fatalf("expected 1 call to base, got %d", base.lists)
	}
	if ttl := mr.TTL(leadsCacheKey(domain.BoardSpeakers)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}
}

func TestCacheFilteredListingsBypassCache(t *testing.T) {
	base := &stubRepo{}
	cache, mr := newTestCache(t, base, time.Minute)
	q := app.ListQuery{Status: "LOCKED", Limit: backend.DefaultListLimit}

	for range 2 {
		if _, err := cache.ListLeads(context.Background(), domain.BoardSpeakers, q); err != nil {
			t.Fatalf("ListLeads() error = %v", err)
		}
	}
	if base.lists != 2 || base.lastList != q {
		t.Fatalf("filtered listing must reach base, lists=%d", base.lists)
	}
	if mr.Exists(leadsCacheKey(domain.BoardSpeakers)) {
		t.Fatal("filtered listing must not populate the cache")
	}
}

func TestCacheWritesEvict(t *testing.T) {
	base := &stubRepo{leads: []domain.Lead{{ID: 1, Name: "Ada", Stage: "SCOUTED"}}}
	cache, mr := newTestCache(t, base, time.Minute)
	ctx := context.Background()

	if _, err := cache.ListLeads(ctx, domain.BoardSpeakers, defaultQuery); err != nil {
		t.Fatalf("ListLeads() error = %v", err)
	}
	if !mr.Exists(leadsCacheKey(domain.BoardSpeakers)) {
		t.Fatal("expected cached listing")
	}
	if err := cache.UpdateLeads(ctx, domain.BoardSpeakers, nil, domain.AuditEvent{}); err != nil {
		t.Fatalf("UpdateLeads() error = %v", err)
	}
	if mr.Exists(leadsCacheKey(domain.BoardSpeakers)) {
		t.Fatal("write must evict the board listing")
	}
	if _, err := cache.ListLeads(ctx, domain.BoardSpeakers, defaultQuery); err != nil {
		t.Fatalf("ListLeads() error = %v", err)
	}
	if base.lists != 2 {
		t.Fatalf("expected refetch after eviction, got %d calls", base.lists)
	}
}

func TestCacheCorruptEntryFallsBack(t *testing.T) {
	base := &stubRepo{leads: []domain.Lead{{ID: 2, Name: "Bo", Stage: "SCOUTED"}}}
	cache, mr := newTestCache(t, base, time.Minute)
	if err := mr.Set(leadsCacheKey(domain.BoardSpeakers), "not-json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	leads, err := cache.ListLeads(context.Background(), domain.BoardSpeakers, defaultQuery)
	if err != nil || len(leads) != 1 || leads[0].ID != 2 {
		t.Fatalf("ListLeads() = %+v, %v", leads, err)
	}
}

func TestCacheBaseErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	cache, _ := newTestCache(t, &stubRepo{listErr: boom}, time.Minute)
	if _, err := cache.ListLeads(context.Background(), domain.BoardSpeakers, defaultQuery); !errors.Is(err, boom) {
		t.Fatalf("expected base error, got %v", err)
	}
}

func TestCacheZeroTTLDisablesStore(t *testing.T) {
	base := &stubRepo{}
	cache, mr := newTestCache(t, base, 0)
	if _, err := cache.ListLeads(context.Background(), domain.BoardSpeakers, defaultQuery); err != nil {
		t.Fatalf("ListLeads() error = %v", err)
	}
	if mr.Exists(leadsCacheKey(domain.BoardSpeakers)) {
		t.Fatal("zero TTL must disable caching")
	}
}
