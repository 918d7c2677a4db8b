// Package httpclient implements the board remote over the lead service's HTTP API.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/adapters/wire"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// defaultTimeout bounds one request when no custom client is supplied.
const defaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to one board's endpoints.
type Client struct {
	base  *url.URL
	board domain.BoardType
	http  *http.Client
	token string
	reqID func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = strings.TrimSpace(token)
	}
}

// WithRequestIDGenerator replaces the X-Request-ID generator.
func WithRequestIDGenerator(fn func() string) Option {
	return func(cl *Client) {
		if fn != nil {
			cl.reqID = fn
		}
	}
}

// New constructs a client for board rooted at baseURL.
func New(baseURL string, board domain.BoardType, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}
	if _, err := domain.ParseBoardType(string(board)); err != nil {
		return nil, err
	}
	c := &Client{
		base:  base,
		board: board,
		http:  &http.Client{Timeout: defaultTimeout},
		reqID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ app.Remote = (*Client)(nil)

// Board returns the board this client addresses.
func (c *Client) Board() domain.BoardType {
	return c.board
}

// ListLeads fetches the authoritative lead list.
func (c *Client) ListLeads(ctx context.Context, q app.ListQuery) ([]domain.Lead, error) {
	var out []wire.Lead
	if err := c.do(ctx, http.MethodGet, c.boardPath(), wire.Query(q), nil, &out); err != nil {
		return nil, err
	}
	return wire.DomainLeads(out), nil
}

// UpdateLead sends a partial update for one lead.
func (c *Client) UpdateLead(ctx context.Context, id domain.LeadID, patch domain.Patch) (domain.Lead, error) {
	var out wire.Lead
	if err := c.do(ctx, http.MethodPatch, c.boardPath(id.String()), nil, wire.PatchBody(patch), &out); err != nil {
		return domain.Lead{}, err
	}
	return out.Domain(), nil
}

// BulkUpdate applies one patch to many leads in a single request.
func (c *Client) BulkUpdate(ctx context.Context, ids []domain.LeadID, patch domain.Patch) (app.BulkUpdateResult, error) {
	var out wire.BulkResponse
	if err := c.do(ctx, http.MethodPatch, c.boardPath("bulk"), nil, wire.BulkBody(ids, patch), &out); err != nil {
		return app.BulkUpdateResult{}, err
	}
	return out.Result(), nil
}

// CreateLead creates a lead and returns the server record.
func (c *Client) CreateLead(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	var out wire.Lead
	if err := c.do(ctx, http.MethodPost, c.boardPath(), nil, wire.LeadFromDomain(lead), &out); err != nil {
		return domain.Lead{}, err
	}
	return out.Domain(), nil
}

// BulkDelete removes leads; only admins are authorized.
func (c *Client) BulkDelete(ctx context.Context, ids []domain.LeadID) (int, error) {
	req := wire.DeleteRequest{IDs: make([]int64, 0, len(ids))}
	for _, id := range ids {
		req.IDs = append(req.IDs, int64(id))
	}
	var out wire.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, c.boardPath("bulk"), nil, req, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// EnrichLead asks the service to look up contact details for one lead.
func (c *Client) EnrichLead(ctx context.Context, id domain.LeadID) (app.EnrichResult, error) {
	var out wire.EnrichResponse
	if err := c.do(ctx, http.MethodPost, c.boardPath(id.String(), "enrich"), nil, nil, &out); err != nil {
		return app.EnrichResult{}, err
	}
	return app.EnrichResult{Email: strings.TrimSpace(out.Email)}, nil
}

// ListUsers fetches the operator roster; only admins are authorized.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []wire.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, nil, &out); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(out))
	for _, u := range out {
		users = append(users, u.Domain())
	}
	return users, nil
}

// ListAudit fetches the most recent activity-log entries.
func (c *Client) ListAudit(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	query.Set("board", string(c.board))
	var out []wire.AuditEvent
	if err := c.do(ctx, http.MethodGet, "/logs", query, nil, &out); err != nil {
		return nil, err
	}
	events := make([]domain.AuditEvent, 0, len(out))
	for _, ev := range out {
		events = append(events, domain.AuditEvent{
			ID:         ev.ID,
			Board:      domain.BoardType(ev.Board),
			LeadID:     domain.LeadID(ev.LeadID),
			Action:     domain.AuditAction(ev.Action),
			Actor:      ev.UserName,
			Details:    ev.Details,
			OccurredAt: ev.Timestamp,
		})
	}
	return events, nil
}

// boardPath joins segments under the board root.
func (c *Client) boardPath(segments ...string) string {
	return "/" + strings.Join(append([]string{string(c.board)}, segments...), "/")
}

// do sends one request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := *c.base
	target.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := wire.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", c.reqID())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := wire.ErrorDetail(raw)
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &app.RemoteError{StatusCode: resp.StatusCode, Detail: detail}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := wire.Decode(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
