package domain

import (
	"maps"
	"strings"
)

// Patch is a partial lead update; nil fields are left untouched.
// AssignedTo set to the empty string clears the assignment.
type Patch struct {
	Stage      *StageID
	Email      *string
	Phone      *string
	AssignedTo *string
	IsBounty   *bool
	Priority   *string
	Notes      *string
	Details    map[string]string
}

// StagePatch returns a patch that only moves a lead to stage.
func StagePatch(stage StageID) Patch {
	return Patch{Stage: &stage}
}

// AssignPatch returns a patch that assigns leads to user, or clears the assignment when user is empty.
func AssignPatch(user string) Patch {
	user = strings.TrimSpace(user)
	return Patch{AssignedTo: &user}
}

// BountyPatch returns a patch that sets the priority flag.
func BountyPatch(flag bool) Patch {
	return Patch{IsBounty: &flag}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Stage == nil &&
		p.Email == nil &&
		p.Phone == nil &&
		p.AssignedTo == nil &&
		p.IsBounty == nil &&
		p.Priority == nil &&
		p.Notes == nil &&
		len(p.Details) == 0
}

// Batchable reports whether the patch only touches fields a bulk update may carry.
func (p Patch) Batchable() bool {
	if p.IsEmpty() {
		return false
	}
	return p.Email == nil && p.Phone == nil && p.Notes == nil && len(p.Details) == 0
}

// ClearsAssignment reports whether the patch removes the lead owner.
func (p Patch) ClearsAssignment() bool {
	return p.AssignedTo != nil && *p.AssignedTo == ""
}

// WithoutStage returns a copy of the patch with the stage change removed.
func (p Patch) WithoutStage() Patch {
	p.Stage = nil
	return p
}

// Apply returns a copy of lead with the patch merged in.
func (p Patch) Apply(lead Lead) Lead {
	out := lead.Clone()
	if p.Stage != nil {
		out.Stage = *p.Stage
	}
	if p.Email != nil {
		out.Email = strings.TrimSpace(*p.Email)
	}
	if p.Phone != nil {
		out.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.AssignedTo != nil {
		out.AssignedTo = strings.TrimSpace(*p.AssignedTo)
		if out.AssignedTo == "" {
			out.AssignedBy = ""
		}
	}
	if p.IsBounty != nil {
		out.IsBounty = *p.IsBounty
	}
	if p.Priority != nil {
		out.Priority = strings.TrimSpace(*p.Priority)
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if len(p.Details) > 0 {
		if out.Details == nil {
			out.Details = make(map[string]string, len(p.Details))
		}
		maps.Copy(out.Details, p.Details)
	}
	return out
}

// Fields lists the lead fields the patch touches, in wire naming.
func (p Patch) Fields() []string {
	fields := make([]string, 0, 8)
	if p.Stage != nil {
		fields = append(fields, "status")
	}
	if p.Email != nil {
		fields = append(fields, "email")
	}
	if p.Phone != nil {
		fields = append(fields, "phone")
	}
	if p.AssignedTo != nil {
		fields = append(fields, "assigned_to")
	}
	if p.IsBounty != nil {
		fields = append(fields, "is_bounty")
	}
	if p.Priority != nil {
		fields = append(fields, "outreach_priority")
	}
	if p.Notes != nil {
		fields = append(fields, "notes")
	}
	if len(p.Details) > 0 {
		fields = append(fields, "details")
	}
	return fields
}
