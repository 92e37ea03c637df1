package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhofmeer/crewtrack/libs/db"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/model"
)

// AllocationRepository reads and writes the allocations table. The table
// carries a GiST exclusion constraint over (resource_id, time span), so a
// concurrent insert that slips past the application-level conflict check
// still fails with SQLSTATE 23P01; see IsConflict.
type AllocationRepository struct {
	pool *db.Pool
}

func NewAllocationRepository(pool *db.Pool) *AllocationRepository {
	return &AllocationRepository{pool: pool}
}

func (r *AllocationRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const allocationColumns = `
	id,
	resource_id,
	task_id,
	to_char(start_date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'),
	COALESCE(to_char(end_date, 'YYYY-MM-DD'), ''),
	COALESCE(to_char(end_time, 'HH24:MI'), ''),
	COALESCE(note, ''),
	lat,
	lon,
	created_at,
	updated_at`

func (r *AllocationRepository) Create(ctx context.Context, tx pgx.Tx, alloc *model.Allocation) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO allocations
			(id, resource_id, task_id, start_date, start_time, end_date, end_time, note, lat, lon)
		VALUES ($1, $2, $3, $4::date, $5::time, NULLIF($6, '')::date, NULLIF($7, '')::time, $8, $9, $10)
		RETURNING id
	`, alloc.ID, alloc.ResourceID, alloc.TaskID, alloc.StartDate, alloc.StartTime,
		alloc.EndDate, alloc.EndTime, alloc.Note, alloc.Lat, alloc.Lon).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AllocationRepository) GetByID(ctx context.Context, id string) (model.Allocation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE id = $1
	`, id)
	return scanAllocation(row)
}

func (r *AllocationRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Allocation, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanAllocation(row)
}

func (r *AllocationRepository) Close(ctx context.Context, tx pgx.Tx, id, endDate, endTime string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE allocations
		SET end_date = $2::date,
			end_time = $3::time,
			updated_at = now()
		WHERE id = $1
	`, id, endDate, endTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Save persists the mutable fields of an existing allocation. The open-shift
// resolver uses it outside a transaction to write one close at a time.
func (r *AllocationRepository) Save(ctx context.Context, alloc *model.Allocation) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE allocations
		SET end_date = NULLIF($2, '')::date,
			end_time = NULLIF($3, '')::time,
			note = $4,
			updated_at = now()
		WHERE id = $1
	`, alloc.ID, alloc.EndDate, alloc.EndTime, alloc.Note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AllocationRepository) FindByResourceAndDateRange(ctx context.Context, resourceID, dateFrom, dateTo string) ([]model.Allocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE resource_id = $1
			AND start_date >= $2::date
			AND start_date <= $3::date
		ORDER BY start_date ASC, start_time ASC
	`, resourceID, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (r *AllocationRepository) FindByResourceAndDate(ctx context.Context, resourceID, date string) ([]model.Allocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE resource_id = $1
			AND start_date = $2::date
		ORDER BY start_time ASC
	`, resourceID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func (r *AllocationRepository) ListByResource(ctx context.Context, resourceID string, limit int) ([]model.Allocation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE resource_id = $1
		ORDER BY start_date DESC, start_time DESC
		LIMIT $2
	`, resourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAllocations(rows)
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func scanAllocation(row pgx.Row) (model.Allocation, error) {
	var a model.Allocation
	err := row.Scan(
		&a.ID,
		&a.ResourceID,
		&a.TaskID,
		&a.StartDate,
		&a.StartTime,
		&a.EndDate,
		&a.EndTime,
		&a.Note,
		&a.Lat,
		&a.Lon,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return model.Allocation{}, err
	}
	return a, nil
}

func scanAllocations(rows pgx.Rows) ([]model.Allocation, error) {
	var allocs []model.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return allocs, nil
}
