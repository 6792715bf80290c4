package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeledger/backend/internal/infrastructure/config"
	"github.com/tradeledger/backend/internal/infrastructure/persistence/models"
	"github.com/tradeledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

type databaseOptions struct {
	gormLogger gormlogger.Interface
	tracing    *telemetry.DBTracingConfig
	metrics    *telemetry.DBMetrics
	logger     *zap.Logger
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*databaseOptions)

// WithGormLogger replaces gorm's default statement logger.
func WithGormLogger(l gormlogger.Interface) DatabaseOption {
	return func(o *databaseOptions) { o.gormLogger = l }
}

// WithTracing registers otelgorm spans and slow-statement marking.
func WithTracing(cfg telemetry.DBTracingConfig) DatabaseOption {
	return func(o *databaseOptions) { o.tracing = &cfg }
}

// WithMetrics registers statement counters and latency histograms.
func WithMetrics(m *telemetry.DBMetrics) DatabaseOption {
	return func(o *databaseOptions) { o.metrics = m }
}

func WithLogger(l *zap.Logger) DatabaseOption {
	return func(o *databaseOptions) { o.logger = l }
}

// NewDatabase opens the postgres pool described by cfg and pings it.
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	db, err := openDatabase(postgres.Open(cfg.DSN()), opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// openDatabase opens any dialector with the shared gorm settings and
// instrumentation. Tests pass sqlite or sqlmock dialectors here.
func openDatabase(dialector gorm.Dialector, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{gormLogger: gormlogger.Default.LogMode(gormlogger.Silent), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if o.tracing != nil {
		if err := telemetry.RegisterDBTracing(db, *o.tracing, o.logger); err != nil {
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}
	if o.metrics != nil {
		if err := o.metrics.Register(db); err != nil {
			return nil, fmt.Errorf("failed to register database metrics: %w", err)
		}
	}
	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// AutoMigrate creates or updates every receivables table. Production
// schema changes go through the SQL migrations; this is for tests and
// local bootstrapping.
func (d *Database) AutoMigrate(ctx context.Context) error {
	return d.DB.WithContext(ctx).AutoMigrate(models.AllModels()...)
}
