package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhofmeer/crewtrack/libs/db"
)

// Entry is one audit-trail row. Detail holds the action-specific fields
// (previous values on edits, the closing instant on auto-closes).
type Entry struct {
	ID           int64
	Actor        string
	Action       string
	AllocationID string
	Detail       map[string]any
	CreatedAt    time.Time
}

const (
	ActionCreated    = "allocation.created"
	ActionClosed     = "allocation.closed"
	ActionAutoClosed = "allocation.autoclosed"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends an audit entry inside the caller's transaction so the trail
// never records an action that was rolled back.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, entry Entry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO audit_log (actor, action, allocation_id, detail)
		VALUES ($1, $2, $3, $4)
	`, entry.Actor, entry.Action, entry.AllocationID, detail)
	return err
}

func (r *Repository) ListByAllocation(ctx context.Context, allocationID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor, action, allocation_id, detail, created_at
		FROM audit_log
		WHERE allocation_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, allocationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.AllocationID, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Detail); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}
