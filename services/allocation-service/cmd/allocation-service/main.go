package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jhofmeer/crewtrack/libs/config"
	"github.com/jhofmeer/crewtrack/libs/db"
	"github.com/jhofmeer/crewtrack/libs/httpx"
	"github.com/jhofmeer/crewtrack/libs/kafkax"
	otelx "github.com/jhofmeer/crewtrack/libs/otel"
	"github.com/jhofmeer/crewtrack/libs/runtime"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/audit"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/consumer"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/handlers"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/inbox"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/outbox"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/policy"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/schedule"
	"github.com/jhofmeer/crewtrack/services/allocation-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "allocation-service")
	port, err := config.Port("PORT", "8081")
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

	repo := storage.NewAllocationRepository(pool)
	resourceRepo := storage.NewResourceRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	auditRepo := audit.NewRepository(pool)
	engine := schedule.NewEngine(repo)

	defaultWindow := schedule.WorkingWindow{
		StartMinute: config.Int("WORKDAY_START_MINUTE", 6*60),
		EndMinute:   config.Int("WORKDAY_END_MINUTE", 22*60),
	}
	policyProvider, err := policy.NewSitePolicyProvider(logger, defaultWindow, config.String("MASTERDATA_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("policy provider init failed", "err", err)
		policyProvider = policy.NewStaticProvider(defaultWindow)
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	startConsumer := func(topic string, handler consumer.Handler) {
		if topic == "" {
			return
		}
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "allocation-service"),
			Topic:   topic,
		}, handler)
		go c.Run(ctx)
	}
	startConsumer(consumer.TopicResourceUpserted, consumer.ResourceUpsertedHandler(resourceRepo, logger))
	startConsumer(consumer.TopicResourceRetired, consumer.ResourceRetiredHandler(resourceRepo, logger))

	allocationHandler := handlers.NewAllocationHandler(
		repo, resourceRepo, engine, outboxRepo, auditRepo, logger, policyProvider,
		handlers.Config{
			DefaultWindow:  defaultWindow,
			RequireQuarter: config.Bool("REQUIRE_QUARTER_HOUR", false),
		},
	)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/allocations", allocationHandler.List)
	mux.HandleFunc("/api/v1/allocations/create", allocationHandler.Create)
	mux.HandleFunc("/api/v1/allocations/close", allocationHandler.CloseAllocation)
	mux.HandleFunc("/api/v1/allocations/conflicts", allocationHandler.Conflicts)
	mux.HandleFunc("/api/v1/allocations/audit", allocationHandler.AuditTrail)
	mux.HandleFunc("/api/v1/public/slots", allocationHandler.Slots)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "allocation")
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
