// Package rediscache adds a Redis read-through cache in front of the lead repository.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/adapters/wire"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/backend"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// Cache wraps a Repository with Redis-backed caching of the default board listing.
// Filtered or paged listings always reach the base repository.
type Cache struct {
	backend.Repository
	redis *redis.Client
	ttl   time.Duration
}

var _ backend.Repository = (*Cache)(nil)

// New creates a caching Repository wrapper using the provided Redis client and TTL.
func New(base backend.Repository, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("rediscache.New: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{Repository: base, redis: client, ttl: ttl}
}

// Dial connects to the Redis server at rawURL and verifies it answers.
func Dial(ctx context.Context, rawURL string) (*redis.Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ListLeads serves the default listing from cache when possible.
func (c *Cache) ListLeads(ctx context.Context, board domain.BoardType, q app.ListQuery) ([]domain.Lead, error) {
	if !cacheable(q) {
		return c.Repository.ListLeads(ctx, board, q)
	}
	if leads, ok := c.loadLeads(ctx, board); ok {
		return leads, nil
	}
	leads, err := c.Repository.ListLeads(ctx, board, q)
	if err != nil {
		return nil, err
	}
	c.storeLeads(ctx, board, leads)
	return leads, nil
}

// CreateLead writes through and evicts the board listing.
func (c *Cache) CreateLead(ctx context.Context, board domain.BoardType, lead domain.Lead, event domain.AuditEvent) (domain.Lead, error) {
	created, err := c.Repository.CreateLead(ctx, board, lead, event)
	if err != nil {
		return domain.Lead{}, err
	}
	c.evict(ctx, board)
	return created, nil
}

// UpdateLeads writes through and evicts the board listing.
func (c *Cache) UpdateLeads(ctx context.Context, board domain.BoardType, leads []domain.Lead, event domain.AuditEvent) error {
	if err := c.Repository.UpdateLeads(ctx, board, leads, event); err != nil {
		return err
	}
	c.evict(ctx, board)
	return nil
}

// DeleteLeads writes through and evicts the board listing.
func (c *Cache) DeleteLeads(ctx context.Context, board domain.BoardType, ids []domain.LeadID, event domain.AuditEvent) (int, error) {
	count, err := c.Repository.DeleteLeads(ctx, board, ids, event)
	if err != nil {
		return 0, err
	}
	c.evict(ctx, board)
	return count, nil
}

func (c *Cache) loadLeads(ctx context.Context, board domain.BoardType) ([]domain.Lead, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, leadsCacheKey(board)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing repository without failing.
			_ = c.redis.Del(ctx, leadsCacheKey(board)).Err()
		}
		return nil, false
	}
	var leads []wire.Lead
	if err := wire.Unmarshal(data, &leads); err != nil {
		_ = c.redis.Del(ctx, leadsCacheKey(board)).Err()
		return nil, false
	}
	return wire.DomainLeads(leads), true
}

func (c *Cache) storeLeads(ctx context.Context, board domain.BoardType, leads []domain.Lead) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := wire.Marshal(wire.LeadsFromDomain(leads))
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, leadsCacheKey(board), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, board domain.BoardType) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, leadsCacheKey(board)).Result()
}

// cacheable reports whether q is the unfiltered first page.
func cacheable(q app.ListQuery) bool {
	return q == app.ListQuery{Limit: backend.DefaultListLimit}
}

func leadsCacheKey(board domain.BoardType) string {
	return "leads:" + string(board)
}
