package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/backend"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores leads, users, and the audit log in one sqlite database.
type Repository struct {
	db *sql.DB
}

var _ backend.Repository = (*Repository)(nil)

// Open opens the database at path, creating parent directories and schema as needed.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

// newRepository pins the pool to one connection; sqlite serializes writers and an
// in-memory database lives only as long as its connection.
func newRepository(db *sql.DB) (*Repository, error) {
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			board TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			assigned_to TEXT NOT NULL DEFAULT '',
			assigned_by TEXT NOT NULL DEFAULT '',
			is_bounty INTEGER NOT NULL DEFAULT 0,
			outreach_priority TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			details_json TEXT NOT NULL DEFAULT '{}',
			last_updated TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			roll_number TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			board TEXT NOT NULL,
			lead_id INTEGER NOT NULL DEFAULT 0,
			action TEXT NOT NULL,
			user_name TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_leads_board_updated ON leads(board, last_updated DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_leads_board_assigned ON leads(board, assigned_to);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_board_created_at ON audit_log(board, created_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// leadColumns is the canonical select list consumed by scanLead.
const leadColumns = `id, name, status, email, phone, assigned_to, assigned_by, is_bounty, outreach_priority, notes, details_json, last_updated`

// ListLeads lists board leads matching q, most recently updated first.
func (r *Repository) ListLeads(ctx context.Context, board domain.BoardType, q app.ListQuery) ([]domain.Lead, error) {
	var (
		where = []string{"board = ?"}
		args  = []any{string(board)}
	)
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.AssignedTo != "" {
		where = append(where, "assigned_to = ?")
		args = append(args, q.AssignedTo)
	}
	if q.Unassigned {
		where = append(where, "assigned_to = ''")
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		where = append(where, "(name LIKE ? OR details_json LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY last_updated DESC, id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

// GetLead returns one board lead.
func (r *Repository) GetLead(ctx context.Context, board domain.BoardType, id domain.LeadID) (domain.Lead, error) {
	return getLeadByID(ctx, r.db, board, id)
}

// CreateLead inserts lead and its audit event in one transaction.
func (r *Repository) CreateLead(ctx context.Context, board domain.BoardType, lead domain.Lead, event domain.AuditEvent) (created domain.Lead, err error) {
	detailsJSON, err := encodeDetails(lead.Details)
	if err != nil {
		return domain.Lead{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Lead{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO leads(board, name, status, email, phone, assigned_to, assigned_by, is_bounty, outreach_priority, notes, details_json, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(board),
		lead.Name,
		string(lead.Stage),
		lead.Email,
		lead.Phone,
		lead.AssignedTo,
		lead.AssignedBy,
		boolToInt(lead.IsBounty),
		lead.Priority,
		lead.Notes,
		detailsJSON,
		ts(lead.UpdatedAt),
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Lead{}, err
	}
	event.LeadID = domain.LeadID(id)
	if err = insertAuditEvent(ctx, tx, event); err != nil {
		return domain.Lead{}, err
	}
	created, err = getLeadByID(ctx, tx, board, domain.LeadID(id))
	if err != nil {
		return domain.Lead{}, err
	}
	err = tx.Commit()
	return created, err
}

// UpdateLeads writes every lead and one audit event atomically.
func (r *Repository) UpdateLeads(ctx context.Context, board domain.BoardType, leads []domain.Lead, event domain.AuditEvent) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, lead := range leads {
		var detailsJSON string
		detailsJSON, err = encodeDetails(lead.Details)
		if err != nil {
			return err
		}
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE leads
			SET name = ?, status = ?, email = ?, phone = ?, assigned_to = ?, assigned_by = ?, is_bounty = ?,
				outreach_priority = ?, notes = ?, details_json = ?, last_updated = ?
			WHERE board = ? AND id = ?
		`,
			lead.Name,
			string(lead.Stage),
			lead.Email,
			lead.Phone,
			lead.AssignedTo,
			lead.AssignedBy,
			boolToInt(lead.IsBounty),
			lead.Priority,
			lead.Notes,
			detailsJSON,
			ts(lead.UpdatedAt),
			string(board),
			int64(lead.ID),
		)
		if err != nil {
			return fmt.Errorf("update lead %d: %w", lead.ID, err)
		}
		if err = translateNoRows(res); err != nil {
			return err
		}
	}
	if err = insertAuditEvent(ctx, tx, event); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// DeleteLeads removes the board leads in ids and returns how many existed.
func (r *Repository) DeleteLeads(ctx context.Context, board domain.BoardType, ids []domain.LeadID, event domain.AuditEvent) (count int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, id := range ids {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `DELETE FROM leads WHERE board = ? AND id = ?`, string(board), int64(id))
		if err != nil {
			return 0, fmt.Errorf("delete lead %d: %w", id, err)
		}
		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return 0, err
		}
		count += int(affected)
	}
	if err = insertAuditEvent(ctx, tx, event); err != nil {
		return 0, err
	}
	err = tx.Commit()
	return count, err
}

// GetUser returns one user by roll number.
func (r *Repository) GetUser(ctx context.Context, rollNumber string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT roll_number, name, is_admin FROM users WHERE roll_number = ?`, rollNumber)
	var (
		user  domain.User
		admin int
	)
	if err := row.Scan(&user.RollNumber, &user.Name, &admin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, backend.ErrNotFound
		}
		return domain.User{}, err
	}
	user.IsAdmin = admin != 0
	return user, nil
}

// ListUsers lists every user ordered by roll number.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT roll_number, name, is_admin FROM users ORDER BY roll_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		var (
			user  domain.User
			admin int
		)
		if err := rows.Scan(&user.RollNumber, &user.Name, &admin); err != nil {
			return nil, err
		}
		user.IsAdmin = admin != 0
		out = append(out, user)
	}
	return out, rows.Err()
}

// UpsertUser inserts or replaces a user.
func (r *Repository) UpsertUser(ctx context.Context, user domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(roll_number, name, is_admin) VALUES (?, ?, ?)
		ON CONFLICT(roll_number) DO UPDATE SET name = excluded.name, is_admin = excluded.is_admin
	`, user.RollNumber, user.Name, boolToInt(user.IsAdmin))
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// ListAudit lists recent audit events for board, or for every board when board is empty.
func (r *Repository) ListAudit(ctx context.Context, board domain.BoardType, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board, lead_id, action, user_name, details, created_at
		FROM audit_log
		WHERE ? = '' OR board = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, string(board), string(board), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.AuditEvent, 0)
	for rows.Next() {
		var (
			event      domain.AuditEvent
			boardRaw   string
			leadID     int64
			actionRaw  string
			createdRaw string
		)
		if err := rows.Scan(&event.ID, &boardRaw, &leadID, &actionRaw, &event.Actor, &event.Details, &createdRaw); err != nil {
			return nil, err
		}
		event.Board = domain.BoardType(boardRaw)
		event.LeadID = domain.LeadID(leadID)
		event.Action = domain.AuditAction(actionRaw)
		event.OccurredAt = parseTS(createdRaw)
		out = append(out, event)
	}
	return out, rows.Err()
}

// queryRower represents a query-only DB contract used by DB and Tx implementations.
type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// getLeadByID returns one lead scoped to board.
func getLeadByID(ctx context.Context, q queryRower, board domain.BoardType, id domain.LeadID) (domain.Lead, error) {
	row := q.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE board = ? AND id = ?`, string(board), int64(id))
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, backend.ErrNotFound
	}
	return lead, err
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// insertAuditEvent inserts an audit ledger record.
func insertAuditEvent(ctx context.Context, execer execerContext, event domain.AuditEvent) error {
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	actor := strings.TrimSpace(event.Actor)
	if actor == "" {
		actor = "Unknown"
	}
	_, err := execer.ExecContext(ctx, `
		INSERT INTO audit_log(board, lead_id, action, user_name, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		string(event.Board),
		int64(event.LeadID),
		string(event.Action),
		actor,
		event.Details,
		ts(occurred),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanLead decodes one row selected with leadColumns.
func scanLead(s scanner) (domain.Lead, error) {
	var (
		lead       domain.Lead
		id         int64
		status     string
		bounty     int
		detailsRaw string
		updatedRaw string
	)
	if err := s.Scan(
		&id,
		&lead.Name,
		&status,
		&lead.Email,
		&lead.Phone,
		&lead.AssignedTo,
		&lead.AssignedBy,
		&bounty,
		&lead.Priority,
		&lead.Notes,
		&detailsRaw,
		&updatedRaw,
	); err != nil {
		return domain.Lead{}, err
	}
	lead.ID = domain.LeadID(id)
	lead.Stage = domain.StageID(status)
	lead.IsBounty = bounty != 0
	lead.UpdatedAt = parseTS(updatedRaw)
	if strings.TrimSpace(detailsRaw) != "" && detailsRaw != "{}" {
		if err := json.Unmarshal([]byte(detailsRaw), &lead.Details); err != nil {
			return domain.Lead{}, fmt.Errorf("decode leads.details_json: %w", err)
		}
	}
	return lead, nil
}

func encodeDetails(details map[string]string) (string, error) {
	if len(details) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("encode lead details: %w", err)
	}
	return string(data), nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return backend.ErrNotFound
	}
	return nil
}

// tsLayout is fixed width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(tsLayout, v)
	if err != nil {
		ts, err = time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}
		}
	}
	return ts.UTC()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
