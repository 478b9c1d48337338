package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Singh-Sg/loan-app/internal/bootstrap"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/config"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/kafka"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/scheduler"
	grpcserver "github.com/Singh-Sg/loan-app/internal/presentation/grpc"
	"github.com/Singh-Sg/loan-app/internal/presentation/rest"
	"github.com/Singh-Sg/loan-app/pkg/events"
	pkgkafka "github.com/Singh-Sg/loan-app/pkg/kafka"
	"github.com/Singh-Sg/loan-app/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("servicingd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Telemetry.LogLevel,
		Format:  cfg.Telemetry.LogFormat,
		Service: cfg.ServiceName,
	})
	logger.Info("starting servicingd",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"time_zone", cfg.TimeZone,
	)

	// Telemetry.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
		Port:        cfg.HTTPPort,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if cfg.Telemetry.TracingURL != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.Telemetry.TracingURL,
			Insecure:    !cfg.Telemetry.TracingSecured,
			SampleRatio: cfg.Telemetry.TraceSampling,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	// Stores, engines and use cases.
	app, err := bootstrap.Open(ctx, cfg, bootstrap.Options{MeterProvider: meterProvider, Migrate: true}, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	// Kafka: outbox relay and transfer confirmations.
	kafkaCfg := bootstrap.KafkaConfig(cfg)
	producer, err := pkgkafka.NewProducer(kafkaCfg)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()
	relay := events.NewRelay(app.Outbox,
		kafka.NewOutboxPublisher(producer, cfg.Kafka.EventsTopic, logger),
		cfg.Jobs.OutboxBatchSize, logger)

	consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.TransfersTopic,
		kafka.TransferConfirmationHandler(app.UseCases.IngestTransfer, logger), logger)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer consumer.Close()

	// Scheduled jobs.
	jobs := scheduler.New(cfg.Location(), cfg.Jobs.LockTTL, logger)
	for _, job := range []scheduler.Job{
		scheduler.RecalculationJob(cfg.Jobs.RecalculateSchedule, app.UseCases.RecalculateAll, logger),
		scheduler.ReconciliationJob(cfg.Jobs.ReconcileSchedule, app.UseCases.AutoReconcile, logger),
	} {
		if err := jobs.Add(job); err != nil {
			return err
		}
	}

	// gRPC server.
	grpcServer, err := grpcserver.NewServer(grpcserver.NewServicingHandler(app.UseCases), grpcserver.ServerOptions{
		ServiceName: cfg.ServiceName,
		TLS:         cfg.TLS,
		Reflection:  cfg.Reflection,
	}, logger)
	if err != nil {
		return err
	}

	// HTTP server (health checks and metrics).
	mux := http.NewServeMux()
	rest.NewHealthHandler(cfg.ServiceName, map[string]rest.Check{
		"dependencies": app.Ready,
	}, metricsHandler, logger).RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           otelhttp.NewHandler(mux, cfg.ServiceName+".http"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start everything.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		relay.Run(gctx, cfg.Jobs.OutboxInterval)
		return nil
	})
	g.Go(func() error {
		if err := consumer.Start(gctx); err != nil {
			return fmt.Errorf("transfer consumer: %w", err)
		}
		return nil
	})
	jobs.Start()

	// Wait for a shutdown signal or the first failure, then drain.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		jobs.Stop(shutdownCtx)
		grpcServer.GracefulStop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("servicingd stopped")
	return err
}
