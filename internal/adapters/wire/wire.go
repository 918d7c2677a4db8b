// Package wire defines the JSON payloads exchanged between the board client and the lead service.
package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// ErrInvalidPayload reports a request body that does not match the expected shape.
var ErrInvalidPayload = errors.New("invalid payload")

// Lead is the JSON shape of one lead record.
type Lead struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	Email       *string           `json:"email"`
	Phone       *string           `json:"phone"`
	AssignedTo  *string           `json:"assigned_to"`
	AssignedBy  *string           `json:"assigned_by"`
	IsBounty    bool              `json:"is_bounty"`
	Priority    string            `json:"outreach_priority,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	LastUpdated *time.Time        `json:"last_updated,omitempty"`
}

// LeadFromDomain converts a domain lead into its wire form; empty optional strings become null.
func LeadFromDomain(lead domain.Lead) Lead {
	out := Lead{
		ID:         int64(lead.ID),
		Name:       lead.Name,
		Status:     string(lead.Stage),
		Email:      nullable(lead.Email),
		Phone:      nullable(lead.Phone),
		AssignedTo: nullable(lead.AssignedTo),
		AssignedBy: nullable(lead.AssignedBy),
		IsBounty:   lead.IsBounty,
		Priority:   lead.Priority,
		Notes:      lead.Notes,
		Details:    maps.Clone(lead.Details),
	}
	if !lead.UpdatedAt.IsZero() {
		updated := lead.UpdatedAt.UTC()
		out.LastUpdated = &updated
	}
	return out
}

// Domain converts the wire lead into a domain lead.
func (l Lead) Domain() domain.Lead {
	out := domain.Lead{
		ID:         domain.LeadID(l.ID),
		Name:       l.Name,
		Stage:      domain.NormalizeStageID(l.Status),
		Email:      deref(l.Email),
		Phone:      deref(l.Phone),
		AssignedTo: deref(l.AssignedTo),
		AssignedBy: deref(l.AssignedBy),
		IsBounty:   l.IsBounty,
		Priority:   l.Priority,
		Notes:      l.Notes,
		Details:    maps.Clone(l.Details),
	}
	if l.LastUpdated != nil {
		out.UpdatedAt = l.LastUpdated.UTC()
	}
	return out
}

// LeadsFromDomain converts a lead list.
func LeadsFromDomain(leads []domain.Lead) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, lead := range leads {
		out = append(out, LeadFromDomain(lead))
	}
	return out
}

// DomainLeads converts a wire lead list.
func DomainLeads(leads []Lead) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		out = append(out, lead.Domain())
	}
	return out
}

// User is the JSON shape of one operator.
type User struct {
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	IsAdmin    bool   `json:"is_admin"`
}

// UserFromDomain converts a domain user.
func UserFromDomain(u domain.User) User {
	return User{RollNumber: u.RollNumber, Name: u.Name, IsAdmin: u.IsAdmin}
}

// Domain converts the wire user.
func (u User) Domain() domain.User {
	return domain.User{RollNumber: u.RollNumber, Name: u.Name, IsAdmin: u.IsAdmin}
}

// BulkResponse is the server accounting for a bulk patch.
type BulkResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	Skipped int    `json:"skipped"`
}

// Result converts the response into the core's bulk result.
func (r BulkResponse) Result() app.BulkUpdateResult {
	return app.BulkUpdateResult{Count: r.Count, Skipped: r.Skipped, Message: r.Message}
}

// DeleteRequest is the body of a bulk delete.
type DeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// DeleteResponse is the server accounting for a bulk delete.
type DeleteResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// EnrichResponse carries the email found by an enrichment lookup, if any.
type EnrichResponse struct {
	Email   string `json:"email,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the error envelope returned by the lead service.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// AuditEvent is the JSON shape of one activity-log entry.
type AuditEvent struct {
	ID        int64     `json:"id"`
	Board     string    `json:"board"`
	LeadID    int64     `json:"lead_id,omitempty"`
	Action    string    `json:"action"`
	UserName  string    `json:"user_name"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditEventFromDomain converts a domain audit event.
func AuditEventFromDomain(ev domain.AuditEvent) AuditEvent {
	return AuditEvent{
		ID:        ev.ID,
		Board:     string(ev.Board),
		LeadID:    int64(ev.LeadID),
		Action:    string(ev.Action),
		UserName:  ev.Actor,
		Details:   ev.Details,
		Timestamp: ev.OccurredAt.UTC(),
	}
}

// PatchBody renders a partial update; only touched fields are present and a cleared
// assignment is sent as null.
func PatchBody(p domain.Patch) map[string]any {
	body := make(map[string]any, 8)
	if p.Stage != nil {
		body["status"] = string(*p.Stage)
	}
	if p.Email != nil {
		body["email"] = *p.Email
	}
	if p.Phone != nil {
		body["phone"] = *p.Phone
	}
	if p.AssignedTo != nil {
		if *p.AssignedTo == "" {
			body["assigned_to"] = nil
		} else {
			body["assigned_to"] = *p.AssignedTo
		}
	}
	if p.IsBounty != nil {
		body["is_bounty"] = *p.IsBounty
	}
	if p.Priority != nil {
		body["outreach_priority"] = *p.Priority
	}
	if p.Notes != nil {
		body["notes"] = *p.Notes
	}
	if len(p.Details) > 0 {
		body["details"] = maps.Clone(p.Details)
	}
	return body
}

// ParsePatch reads a partial update. Unknown fields are ignored; a null or "null" assigned_to clears it.
func ParsePatch(body map[string]any) (domain.Patch, error) {
	var p domain.Patch
	for key, raw := range body {
		switch key {
		case "status":
			s, err := stringField(key, raw)
			if err != nil {
				return domain.Patch{}, err
			}
			stage := domain.NormalizeStageID(s)
			p.Stage = &stage
		case "email":
			s, err := nullableStringField(key, raw)
			if err != nil {
				return domain.Patch{}, err
			}
			p.Email = &s
		case "phone":
			s, err := nullableStringField(key, raw)
			if err != nil {
				return domain.Patch{}, err
			}
			p.Phone = &s
		case "assigned_to":
			s, err := nullableStringField(key, raw)
			if err != nil {
				return domain.Patch{}, err
			}
			s = strings.TrimSpace(s)
			if s == "null" {
				s = ""
			}
			p.AssignedTo = &s
		case "is_bounty":
			flag, ok := raw.(bool)
			if !ok {
				return domain.Patch{}, fmt.Errorf("%w: %s must be a boolean", ErrInvalidPayload, key)
			}
			p.IsBounty = &flag
		case "outreach_priority":
			s, err := nullableStringField(key, raw)
			if err != nil {
				return domain.Patch{}, err
			}
			p.Priority = &s
		case "notes":
			s, err := nullableStringField(key, raw)
			if err != nil {
				return domain.Patch{}, err
			}
			p.Notes = &s
		case "details":
			details, err := detailsField(raw)
			if err != nil {
				return domain.Patch{}, err
			}
			p.Details = details
		}
	}
	return p, nil
}

// BulkRequest is a bulk patch: target ids plus the shared field changes.
type BulkRequest struct {
	IDs   []domain.LeadID
	Patch domain.Patch
}

// BulkBody renders a bulk patch request.
func BulkBody(ids []domain.LeadID, p domain.Patch) map[string]any {
	body := PatchBody(p)
	raw := make([]int64, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, int64(id))
	}
	body["ids"] = raw
	return body
}

// ParseBulkRequest reads a bulk patch request.
func ParseBulkRequest(body map[string]any) (BulkRequest, error) {
	rawIDs, ok := body["ids"].([]any)
	if !ok {
		return BulkRequest{}, fmt.Errorf("%w: ids must be a list", ErrInvalidPayload)
	}
	ids := make([]domain.LeadID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := ParseID(raw)
		if err != nil {
			return BulkRequest{}, err
		}
		ids = append(ids, id)
	}
	rest := maps.Clone(body)
	delete(rest, "ids")
	patch, err := ParsePatch(rest)
	if err != nil {
		return BulkRequest{}, err
	}
	return BulkRequest{IDs: ids, Patch: patch}, nil
}

// ParseID reads one lead id from a decoded JSON value.
func ParseID(raw any) (domain.LeadID, error) {
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: id %q", ErrInvalidPayload, v.String())
		}
		return domain.LeadID(n), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%w: id %v", ErrInvalidPayload, v)
		}
		return domain.LeadID(int64(v)), nil
	case int64:
		return domain.LeadID(v), nil
	case int:
		return domain.LeadID(v), nil
	case string:
		id, err := domain.ParseLeadID(v)
		if err != nil {
			return 0, fmt.Errorf("%w: id %q", ErrInvalidPayload, v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: id %v", ErrInvalidPayload, raw)
	}
}

// Query encodes list filters as URL query parameters.
func Query(q app.ListQuery) url.Values {
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", string(q.Status))
	}
	if q.AssignedTo != "" {
		values.Set("assigned_to", q.AssignedTo)
	}
	if q.Unassigned {
		values.Set("unassigned", "true")
	}
	if q.AssignedToMe {
		values.Set("assigned_to_me", "true")
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	return values
}

// ParseQuery decodes list filters; malformed numbers are ignored.
func ParseQuery(values url.Values) app.ListQuery {
	q := app.ListQuery{
		Status:     domain.NormalizeStageID(values.Get("status")),
		AssignedTo: strings.TrimSpace(values.Get("assigned_to")),
		Search:     strings.TrimSpace(values.Get("search")),
	}
	q.Unassigned, _ = strconv.ParseBool(values.Get("unassigned"))
	q.AssignedToMe, _ = strconv.ParseBool(values.Get("assigned_to_me"))
	if n, err := strconv.Atoi(values.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	if n, err := strconv.Atoi(values.Get("offset")); err == nil && n > 0 {
		q.Offset = n
	}
	return q
}

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode reads one JSON value from r; numbers in untyped targets decode as json.Number.
func Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Unmarshal decodes data into v with the same number handling as Decode.
func Unmarshal(data []byte, v any) error {
	return Decode(bytes.NewReader(data), v)
}

// ErrorDetail extracts a human-readable reason from an error response body.
func ErrorDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil {
			return text
		}
		return string(envelope.Detail)
	}
	return strings.TrimSpace(string(body))
}

func stringField(key string, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidPayload, key)
	}
	return s, nil
}

func nullableStringField(key string, raw any) (string, error) {
	if raw == nil {
		return "", nil
	}
	return stringField(key, raw)
}

func detailsField(raw any) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: details must be an object", ErrInvalidPayload)
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch v := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
