package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhofmeer/crewtrack/libs/db"
	otelx "github.com/jhofmeer/crewtrack/libs/otel"
	"github.com/jhofmeer/crewtrack/services/export-service/internal/erp"
	"github.com/jhofmeer/crewtrack/services/export-service/internal/outbox"
)

// Worker drains due posting jobs and sends each one to the ERP. A failed post
// is retried with backoff; after max attempts the job goes to the dead-letter
// topic for manual handling.
type Worker struct {
	pool      *db.Pool
	repo      *Repository
	outbox    *outbox.Repository
	sender    erp.Sender
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	backoff   time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
}

func NewWorker(pool *db.Pool, repo *Repository, outboxRepo *outbox.Repository, sender erp.Sender, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Minute
	}
	return &Worker{
		pool:      pool,
		repo:      repo,
		outbox:    outboxRepo,
		sender:    sender,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		backoff:   cfg.Backoff,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("posting batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	jobs, err := w.repo.FetchDue(ctx, tx, w.batchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return tx.Commit(ctx)
	}

	var posted []int64
	for _, job := range jobs {
		jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)

		line, err := erp.BuildLine(job.AllocationID, job.ResourceID, job.TaskID, job.WorkDate, job.Hours)
		if err != nil {
			// Malformed jobs never become valid; dead-letter without retrying.
			w.logger.Error("unpostable job", "err", err, "job_id", job.ID)
			if err := w.failJob(jobCtx, tx, job, job.MaxAttempts, err.Error()); err != nil {
				return err
			}
			continue
		}

		doc := erp.Document{
			BatchID: uuid.NewString(),
			Source:  "crewtrack",
			Lines:   []erp.PostingLine{line},
		}
		if err := w.sender.Post(jobCtx, doc); err != nil {
			w.logger.Warn("erp post failed", "err", err, "job_id", job.ID, "attempts", job.Attempts+1)
			if err := w.failJob(jobCtx, tx, job, job.Attempts+1, err.Error()); err != nil {
				return err
			}
			continue
		}
		posted = append(posted, job.ID)
	}

	if err := w.repo.MarkPosted(ctx, tx, posted); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (w *Worker) failJob(ctx context.Context, tx pgx.Tx, job Job, attempts int, reason string) error {
	nextRunAt := time.Now().UTC().Add(w.backoff)
	if err := w.repo.MarkFailed(ctx, tx, job.ID, attempts, job.MaxAttempts, nextRunAt, reason); err != nil {
		return err
	}
	if attempts < job.MaxAttempts {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"allocation_id": job.AllocationID,
		"resource_id":   job.ResourceID,
		"task_id":       job.TaskID,
		"work_date":     job.WorkDate,
		"hours":         job.Hours,
		"error_reason":  reason,
		"failed_at":     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "posting_job",
		AggregateID:   job.AllocationID,
		EventType:     "export.posting.dlq.v1",
		Payload:       payload,
	})
}
