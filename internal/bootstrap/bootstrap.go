// Package bootstrap wires the servicing stores, engines and use cases shared
// by the daemon and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"

	"github.com/Singh-Sg/loan-app/internal/application/usecase"
	"github.com/Singh-Sg/loan-app/internal/domain/port"
	"github.com/Singh-Sg/loan-app/internal/domain/service"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/clock"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/config"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/lock"
	"github.com/Singh-Sg/loan-app/internal/infrastructure/persistence/postgres"
	grpcserver "github.com/Singh-Sg/loan-app/internal/presentation/grpc"
	pkgkafka "github.com/Singh-Sg/loan-app/pkg/kafka"
	pkgpostgres "github.com/Singh-Sg/loan-app/pkg/postgres"
)

// App holds the wired service. Close releases the connections it opened.
type App struct {
	Pool           *pgxpool.Pool
	Redis          *redis.Client
	Clock          port.Clock
	Outbox         *postgres.OutboxStore
	Counterparties *postgres.CounterpartyRepo
	UseCases       grpcserver.UseCases
}

// Options tune Open. A nil Clock uses the wall clock in the service zone; a
// nil MeterProvider uses the otel global.
type Options struct {
	Clock         port.Clock
	MeterProvider metric.MeterProvider
	// Migrate applies pending migrations after connecting.
	Migrate bool
}

// DatabaseConfig maps the service configuration onto the pool settings.
func DatabaseConfig(cfg config.Config) pkgpostgres.Config {
	return pkgpostgres.Config{
		Host:            cfg.DB.Host,
		Port:            cfg.DB.Port,
		User:            cfg.DB.User,
		Password:        cfg.DB.Password,
		Database:        cfg.DB.Name,
		SSLMode:         cfg.DB.SSLMode,
		ApplicationName: cfg.ServiceName,
		MaxConns:        cfg.DB.MaxConns,
	}
}

// KafkaConfig maps the service configuration onto the broker settings.
func KafkaConfig(cfg config.Config) pkgkafka.Config {
	return pkgkafka.Config{
		ClientID:      cfg.Kafka.ClientID,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		Brokers:       cfg.Kafka.Brokers,
		TLS:           cfg.Kafka.TLS,
		SASLEnabled:   cfg.Kafka.SASLUsername != "",
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
	}
}

// Open connects to Postgres and Redis and builds every use case.
func Open(ctx context.Context, cfg config.Config, opts Options, logger *slog.Logger) (*App, error) {
	dbCfg := DatabaseConfig(cfg)

	// 1. Database
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pkgpostgres.NewPool(dbCtx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("connected to database", "host", cfg.DB.Host, "name", cfg.DB.Name)

	if opts.Migrate {
		if err := pkgpostgres.RunMigrations(dbCfg.DSN(), postgres.Migrations, postgres.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	// 2. Job lock
	app := &App{Pool: pool}
	var locker port.Locker = lock.NopLocker{}
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.Redis = rdb
		locker = lock.NewRedisLocker(rdb)
	} else {
		logger.Warn("redis not configured, batch jobs are not coordinated across instances")
	}

	// 3. Domain services
	clk := opts.Clock
	if clk == nil {
		clk = clock.New(cfg.Location())
	}
	app.Clock = clk
	metrics, err := usecase.NewMetrics(opts.MeterProvider)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	recalculator := service.NewScheduleRecalculator(clk.Now)
	allocator := service.NewAllocationEngine(recalculator, clk.Now)
	reconciler := service.NewReconciliationEngine()

	// 4. Adapters and use cases
	ledgers := postgres.NewLedgerStore(pool)
	reconciliations := postgres.NewReconciliationStore(pool)
	app.Counterparties = postgres.NewCounterpartyRepo(pool)
	app.Outbox = postgres.NewOutboxStore(pool)
	transfers := postgres.NewTransferRepo(pool)

	recalculate := usecase.NewRecalculateScheduleUseCase(ledgers, recalculator, clk, metrics)
	app.UseCases = grpcserver.UseCases{
		CreateLoan:          usecase.NewCreateLoanUseCase(ledgers, clk),
		CreateScheduleLines: usecase.NewCreateScheduleLinesUseCase(ledgers),
		GetLoan:             usecase.NewGetLoanUseCase(ledgers, clk),
		ChangeLoanState:     usecase.NewChangeLoanStateUseCase(ledgers, clk),
		RecordRepayment:     usecase.NewRecordRepaymentUseCase(ledgers, allocator, clk, metrics),
		GetDelay:            usecase.NewGetDelayUseCase(ledgers, clk),
		RecalculateSchedule: recalculate,
		RecalculateAll: usecase.NewRecalculateAllSchedulesUseCase(
			ledgers, recalculate, locker, cfg.Jobs.LockTTL, cfg.Jobs.Concurrency),
		ShiftSchedule:   usecase.NewShiftScheduleUseCase(ledgers, clk),
		ReconcileManual: usecase.NewReconcileManualUseCase(reconciliations, reconciler, clk, metrics),
		AutoReconcile: usecase.NewRunAutoReconciliationUseCase(
			app.Counterparties, reconciliations, reconciler, locker, clk, metrics, cfg.Jobs.LockTTL, cfg.Jobs.Concurrency),
		IngestTransfer: usecase.NewIngestTransferUseCase(transfers),
	}
	return app, nil
}

// Ready checks the connections a request depends on.
func (a *App) Ready(ctx context.Context) error {
	if err := pkgpostgres.HealthCheck(ctx, a.Pool); err != nil {
		return err
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	return nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}
