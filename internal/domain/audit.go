package domain

import "time"

// AuditAction describes a persisted activity operation on a board.
type AuditAction string

// AuditAction values recorded by the lead service.
const (
	AuditAdd        AuditAction = "ADD"
	AuditUpdate     AuditAction = "UPDATE"
	AuditMove       AuditAction = "MOVE"
	AuditBulkUpdate AuditAction = "BULK_UPDATE"
	AuditBulkDelete AuditAction = "BULK_DELETE"
	AuditEnrich     AuditAction = "ENRICH"
)

// AuditEvent represents a single activity-log entry.
type AuditEvent struct {
	ID         int64
	Board      BoardType
	LeadID     LeadID
	Action     AuditAction
	Actor      string
	Details    string
	OccurredAt time.Time
}
