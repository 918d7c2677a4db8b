package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// LeadID is the server-assigned identifier of a lead, unique within one board.
type LeadID int64

// Valid reports whether the id could have been assigned by the server.
func (id LeadID) Valid() bool {
	return id > 0
}

// String renders the id in decimal form.
func (id LeadID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseLeadID parses one decimal lead id.
func ParseLeadID(raw string) (LeadID, error) {
	v, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidID
	}
	return LeadID(v), nil
}

// NormalizeLeadIDs drops invalid and duplicate ids while preserving order.
func NormalizeLeadIDs(ids []LeadID) []LeadID {
	out := make([]LeadID, 0, len(ids))
	seen := make(map[LeadID]struct{}, len(ids))
	for _, id := range ids {
		if !id.Valid() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Lead represents one pipeline entity: a speaker, sponsor, or creative asset.
type Lead struct {
	ID         LeadID
	Name       string
	Stage      StageID
	Email      string
	Phone      string
	AssignedTo string
	AssignedBy string
	IsBounty   bool
	Priority   string
	Notes      string
	Details    map[string]string
	UpdatedAt  time.Time
}

// HasContact reports whether the lead has a non-empty email or phone.
func (l Lead) HasContact() bool {
	return strings.TrimSpace(l.Email) != "" || strings.TrimSpace(l.Phone) != ""
}

// Assigned reports whether the lead has an owner.
func (l Lead) Assigned() bool {
	return strings.TrimSpace(l.AssignedTo) != ""
}

// Clone returns a deep copy of the lead.
func (l Lead) Clone() Lead {
	out := l
	if l.Details != nil {
		out.Details = maps.Clone(l.Details)
	}
	return out
}

// Equal reports whether two leads carry identical field values.
func (l Lead) Equal(other Lead) bool {
	if l.ID != other.ID ||
		l.Name != other.Name ||
		l.Stage != other.Stage ||
		l.Email != other.Email ||
		l.Phone != other.Phone ||
		l.AssignedTo != other.AssignedTo ||
		l.AssignedBy != other.AssignedBy ||
		l.IsBounty != other.IsBounty ||
		l.Priority != other.Priority ||
		l.Notes != other.Notes ||
		!l.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	return maps.Equal(l.Details, other.Details)
}

// priorityRank maps "Tier N" labels onto sortable ranks; unknown tiers sort last.
func priorityRank(priority string) int {
	p := strings.ToLower(strings.TrimSpace(priority))
	if rest, ok := strings.CutPrefix(p, "tier"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && n > 0 {
			return n
		}
	}
	return 1 << 30
}

// SortByPriority orders leads Tier 1 first, keeping the incoming order within a tier.
func SortByPriority(leads []Lead) {
	slices.SortStableFunc(leads, func(a, b Lead) int {
		return priorityRank(a.Priority) - priorityRank(b.Priority)
	})
}
