// Package app wires configuration, infrastructure and application services
// for the server, worker and ledgerctl binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/tradeledger/backend/internal/infrastructure/cache"
	"github.com/tradeledger/backend/internal/infrastructure/config"
	"github.com/tradeledger/backend/internal/infrastructure/logger"
	"github.com/tradeledger/backend/internal/infrastructure/persistence"
	"github.com/tradeledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LoadConfig reads env files into the environment and then loads the
// layered configuration. With no files given, a missing .env is ignored.
func LoadConfig(envFiles ...string) (*config.Config, error) {
	err := godotenv.Load(envFiles...)
	if len(envFiles) == 0 && errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return config.Load()
}

// Runtime holds the process-wide infrastructure. Close releases it in
// reverse order of construction.
type Runtime struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *persistence.Database
	Redis    *redis.Client // nil when redis is unreachable
	Meters   *telemetry.MeterProvider
	Metrics  *telemetry.LedgerMetrics
	Tracer   *telemetry.TracerProvider
	profiler *telemetry.Profiler
	closers  []func(context.Context) error
}

// Options tune NewRuntime per binary
type Options struct {
	Component     string // service name suffix, e.g. "server" or "worker"
	RequireRedis  bool
	SkipTelemetry bool
}

// NewRuntime builds logger, telemetry, database and redis from cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	base, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	rt := &Runtime{Config: cfg, Logger: base}
	rt.onClose(func(context.Context) error { _ = base.Sync(); return nil })

	if err := rt.initTelemetry(ctx, opts); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	if err := rt.initDatabase(); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	switch {
	case err == nil:
		rt.Redis = client
		rt.onClose(func(context.Context) error { return client.Close() })
	case opts.RequireRedis:
		_ = rt.Close(ctx)
		return nil, err
	default:
		rt.Logger.Warn("Redis unavailable, running without rate cache and task queue", zap.Error(err))
	}

	metrics, err := telemetry.NewLedgerMetrics(rt.Meters.Meter("ledger"),
		persistence.NewGormCurrencyLedgerRepository(rt.DB.DB), rt.Logger)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("init ledger metrics: %w", err)
	}
	rt.Metrics = metrics
	rt.onClose(func(context.Context) error { metrics.Stop(); return nil })
	return rt, nil
}

func (rt *Runtime) initTelemetry(ctx context.Context, opts Options) error {
	tc := rt.Config.Telemetry
	name := tc.ServiceName
	if opts.Component != "" {
		name += "-" + opts.Component
	}
	base := telemetry.Config{
		Enabled:           tc.Enabled && !opts.SkipTelemetry,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       name,
		Insecure:          tc.Insecure,
	}

	tracer, err := telemetry.NewTracerProvider(ctx, base, rt.Logger)
	if err != nil {
		return err
	}
	rt.Tracer = tracer
	rt.onClose(tracer.Shutdown)

	metricsCfg := base
	metricsCfg.Enabled = base.Enabled && tc.MetricsEnabled
	meters, err := telemetry.NewMeterProvider(ctx, metricsCfg, 15*time.Second, rt.Logger)
	if err != nil {
		return err
	}
	rt.Meters = meters
	rt.onClose(meters.Shutdown)

	logsCfg := base
	logsCfg.Enabled = base.Enabled && tc.LogsEnabled
	logs, err := telemetry.NewLoggerProvider(ctx, logsCfg, rt.Logger)
	if err != nil {
		return err
	}
	rt.onClose(logs.Shutdown)
	rt.Logger = logs.Bridge(rt.Logger, name, logger.ParseLevel(rt.Config.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         tc.ProfilingEnabled && !opts.SkipTelemetry,
		ServerAddress:   tc.PyroscopeAddress,
		ApplicationName: name,
	}, rt.Logger)
	if err != nil {
		return err
	}
	rt.profiler = profiler
	rt.onClose(func(context.Context) error { return profiler.Stop() })
	if profiler.IsEnabled() {
		tracer.EnableSpanProfiles()
	}
	return nil
}

func (rt *Runtime) initDatabase() error {
	cfg := rt.Config
	gormLog := logger.NewGormLogger(rt.Logger, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(cfg.App.Env != "production"),
	)
	dbOpts := []persistence.DatabaseOption{
		persistence.WithGormLogger(gormLog),
		persistence.WithLogger(rt.Logger),
		persistence.WithTracing(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}),
	}
	dbMetrics, err := telemetry.NewDBMetrics(rt.Meters.Meter("db"), cfg.Telemetry.DBSlowQueryThresh, rt.Logger)
	if err != nil {
		return fmt.Errorf("init db metrics: %w", err)
	}
	dbOpts = append(dbOpts, persistence.WithMetrics(dbMetrics))

	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	rt.DB = db
	rt.onClose(func(context.Context) error { return db.Close() })
	rt.onClose(func(context.Context) error { dbMetrics.Stop(); return nil })

	if sqlDB, err := db.DB.DB(); err == nil {
		dbMetrics.StartPoolStatsCollection(context.Background(), sqlDB, 30*time.Second)
	}
	rt.Logger.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
	return nil
}

func (rt *Runtime) onClose(fn func(context.Context) error) {
	rt.closers = append(rt.closers, fn)
}

// Close releases everything NewRuntime opened, newest first.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
