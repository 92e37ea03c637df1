package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	otelx "github.com/jhofmeer/crewtrack/libs/otel"
)

// Job is one closed allocation waiting to be posted to the ERP.
type Job struct {
	ID           int64
	EventID      string
	AllocationID string
	ResourceID   string
	TaskID       string
	WorkDate     string
	Hours        float64
	Traceparent  string
	Tracestate   string
	Attempts     int
	MaxAttempts  int
	NextRunAt    time.Time
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Insert enqueues a posting job. The unique event id makes redelivered close
// events collapse into a single job.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, job Job) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO posting_jobs (event_id, allocation_id, resource_id, task_id, work_date, hours, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`, job.EventID, job.AllocationID, job.ResourceID, job.TaskID, job.WorkDate, job.Hours, traceparent, tracestate)
	return err
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id, allocation_id, resource_id, task_id,
			to_char(work_date, 'YYYY-MM-DD'), hours,
			traceparent, tracestate, attempts, max_attempts, next_run_at
		FROM posting_jobs
		WHERE status = 'pending' AND next_run_at <= now()
		ORDER BY next_run_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.EventID, &j.AllocationID, &j.ResourceID, &j.TaskID, &j.WorkDate, &j.Hours, &j.Traceparent, &j.Tracestate, &j.Attempts, &j.MaxAttempts, &j.NextRunAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return jobs, nil
}

func (r *Repository) MarkPosted(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE posting_jobs
		SET status = 'posted', updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts int, maxAttempts int, nextRunAt time.Time, lastError string) error {
	status := "pending"
	if attempts >= maxAttempts {
		status = "failed"
	}
	_, err := tx.Exec(ctx, `
		UPDATE posting_jobs
		SET attempts = $2,
		    status = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextRunAt, lastError)
	return err
}
