package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jhofmeer/crewtrack/libs/config"
	"github.com/jhofmeer/crewtrack/libs/db"
	"github.com/jhofmeer/crewtrack/libs/httpx"
	"github.com/jhofmeer/crewtrack/libs/kafkax"
	otelx "github.com/jhofmeer/crewtrack/libs/otel"
	"github.com/jhofmeer/crewtrack/libs/runtime"
	"github.com/jhofmeer/crewtrack/services/export-service/internal/consumer"
	"github.com/jhofmeer/crewtrack/services/export-service/internal/erp"
	"github.com/jhofmeer/crewtrack/services/export-service/internal/inbox"
	"github.com/jhofmeer/crewtrack/services/export-service/internal/jobs"
	"github.com/jhofmeer/crewtrack/services/export-service/internal/outbox"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type allocationClosedEvent struct {
	AllocationID  string  `json:"allocation_id"`
	ResourceID    string  `json:"resource_id"`
	TaskID        string  `json:"task_id"`
	StartDate     string  `json:"start_date"`
	DurationHours float64 `json:"duration_hours"`
}

func main() {
	service := config.String("SERVICE_NAME", "export-service")
	port, err := config.Port("PORT", "8082")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	jobsRepo := jobs.NewRepository()
	outboxRepo := outbox.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)

	var sender erp.Sender
	if url := config.String("ERP_URL", ""); url != "" {
		sender = erp.NewHTTPSender(url, config.String("ERP_TOKEN", ""))
	} else {
		logger.Warn("no ERP_URL configured, postings will be dropped")
		sender = erp.NewNoopSender()
	}

	worker := jobs.NewWorker(pool, jobsRepo, outboxRepo, sender, logger, jobs.WorkerConfig{
		Interval:  config.Seconds("POSTING_INTERVAL_SECONDS", 5*time.Second),
		BatchSize: config.Int("POSTING_BATCH_SIZE", 50),
		Backoff:   config.Seconds("POSTING_BACKOFF_SECONDS", 2*time.Minute),
	})
	go worker.Run(ctx)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	enqueue := enqueueHandler(pool, jobsRepo, logger)
	startConsumer := func(topic string) {
		if topic == "" {
			return
		}
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "export-service"),
			Topic:   topic,
		}, enqueue)
		go c.Run(ctx)
	}
	startConsumer(config.String("KAFKA_TOPIC_CLOSED", "allocation.allocation.closed.v1"))
	startConsumer(config.String("KAFKA_TOPIC_AUTOCLOSED", "allocation.allocation.autoclosed.v1"))

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "export")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// enqueueHandler turns allocation close events into posting jobs. An open
// allocation never reaches here; only closed ones carry duration_hours.
func enqueueHandler(pool *db.Pool, repo *jobs.Repository, logger *slog.Logger) consumer.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt allocationClosedEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.AllocationID == "" || evt.ResourceID == "" || evt.TaskID == "" {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}

		meta := kafkax.ExtractEventMeta(msg)

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := repo.Insert(ctx, tx, jobs.Job{
			EventID:      meta.EventID,
			AllocationID: evt.AllocationID,
			ResourceID:   evt.ResourceID,
			TaskID:       evt.TaskID,
			WorkDate:     evt.StartDate,
			Hours:        evt.DurationHours,
		}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
}
