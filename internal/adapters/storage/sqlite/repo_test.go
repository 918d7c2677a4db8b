package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/backend"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "outreach.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestRepository_LeadLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	created, err := repo.CreateLead(ctx, domain.BoardSpeakers, domain.Lead{
		Name:      "Ada",
		Stage:     "SCOUTED",
		Phone:     "555",
		Priority:  "Tier 1",
		Details:   map[string]string{"location": "Pune"},
		UpdatedAt: now,
	}, domain.AuditEvent{Board: domain.BoardSpeakers, Action: domain.AuditAdd, Actor: "u1", Details: "Added speaker Ada", OccurredAt: now})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}
	if created.ID == 0 || created.Details["location"] != "Pune" || !created.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected created lead %+v", created)
	}

	moved := created.Clone()
	moved.Stage = "CONNECTED"
	moved.AssignedTo = "u1"
	moved.IsBounty = true
	moved.UpdatedAt = now.Add(time.Minute)
	if err := repo.UpdateLeads(ctx, domain.BoardSpeakers, []domain.Lead{moved}, domain.AuditEvent{Board: domain.BoardSpeakers, LeadID: created.ID, Action: domain.AuditMove, Actor: "u1"}); err != nil {
		t.Fatalf("UpdateLeads() error = %v", err)
	}
	loaded, err := repo.GetLead(ctx, domain.BoardSpeakers, created.ID)
	if err != nil {
		t.Fatalf("GetLead() error = %v", err)
	}
	if !loaded.Equal(moved) {
		t.Fatalf("loaded %+v, want %+v", loaded, moved)
	}

	if _, err := repo.GetLead(ctx, domain.BoardSponsors, created.ID); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("leads must be scoped to their board, got %v", err)
	}
	ghost := moved
	ghost.ID = 999
	if err := repo.UpdateLeads(ctx, domain.BoardSpeakers, []domain.Lead{ghost}, domain.AuditEvent{}); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	count, err := repo.DeleteLeads(ctx, domain.BoardSpeakers, []domain.LeadID{created.ID, 999}, domain.AuditEvent{Board: domain.BoardSpeakers, Action: domain.AuditBulkDelete, Actor: "a1"})
	if err != nil || count != 1 {
		t.Fatalf("DeleteLeads() = %d, %v", count, err)
	}

	events, err := repo.ListAudit(ctx, domain.BoardSpeakers, 10)
	if err != nil {
		t.Fatalf("ListAudit() error = %v", err)
	}
	if len(events) != 3 || events[0].Action != domain.AuditBulkDelete || events[2].LeadID != created.ID {
		t.Fatalf("unexpected audit events %+v", events)
	}
}

func TestRepository_ListLeadsFilters(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []domain.Lead{
		{Name: "Alpha", Stage: "SCOUTED", UpdatedAt: base},
		{Name: "Beta", Stage: "LOCKED", Email: "b@x", AssignedTo: "u1", UpdatedAt: base.Add(time.Hour)},
		{Name: "Gamma", Stage: "SCOUTED", AssignedTo: "u2", Details: map[string]string{"primary_domain": "robotics"}, UpdatedAt: base.Add(2 * time.Hour)},
	}
	for _, lead := range seed {
		if _, err := repo.CreateLead(ctx, domain.BoardSpeakers, lead, domain.AuditEvent{Board: domain.BoardSpeakers, Action: domain.AuditAdd}); err != nil {
			t.Fatalf("CreateLead() error = %v", err)
		}
	}
	if _, err := repo.CreateLead(ctx, domain.BoardSponsors, domain.Lead{Name: "Other", Stage: "PROSPECT", UpdatedAt: base}, domain.AuditEvent{Board: domain.BoardSponsors}); err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}

	names := func(t *testing.T, q app.ListQuery) []string {
		t.Helper()
		leads, err := repo.ListLeads(ctx, domain.BoardSpeakers, q)
		if err != nil {
			t.Fatalf("ListLeads() error = %v", err)
		}
		out := make([]string, 0, len(leads))
		for _, lead := range leads {
			out = append(out, lead.Name)
		}
		return out
	}

	cases := []struct {
		name  string
		query app.ListQuery
		want  []string
	}{
		{name: "all newest first", query: app.ListQuery{}, want: []string{"Gamma", "Beta", "Alpha"}},
		{name: "status", query: app.ListQuery{Status: "SCOUTED"}, want: []string{"Gamma", "Alpha"}},
		{name: "assigned", query: app.ListQuery{AssignedTo: "u1"}, want: []string{"Beta"}},
		{name: "unassigned", query: app.ListQuery{Unassigned: true}, want: []string{"Alpha"}},
		{name: "search name", query: app.ListQuery{Search: "alp"}, want: []string{"Alpha"}},
		{name: "search details", query: app.ListQuery{Search: "robot"}, want: []string{"Gamma"}},
		{name: "page", query: app.ListQuery{Limit: 1, Offset: 1}, want: []string{"Beta"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := names(t, tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if err := repo.UpsertUser(ctx, domain.User{RollNumber: "u2", Name: "Two"}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if err := repo.UpsertUser(ctx, domain.User{RollNumber: "u1", Name: "One"}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if err := repo.UpsertUser(ctx, domain.User{RollNumber: "u2", Name: "Two", IsAdmin: true}); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	user, err := repo.GetUser(ctx, "u2")
	if err != nil || !user.IsAdmin {
		t.Fatalf("GetUser() = %+v, %v", user, err)
	}
	if _, err := repo.GetUser(ctx, "nope"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	users, err := repo.ListUsers(ctx)
	if err != nil || len(users) != 2 || users[0].RollNumber != "u1" {
		t.Fatalf("ListUsers() = %+v, %v", users, err)
	}
}
