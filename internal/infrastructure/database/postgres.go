package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/pkg/config"
	applog "github.com/door2door/fieldvisits/internal/pkg/logger"
)

const (
	connectTimeout = 5 * time.Second
	slowQuery      = 500 * time.Millisecond
)

// PostgresDB holds the visits database connection
type PostgresDB struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// slogWriter feeds gorm's printf-style logger into slog
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(fmt.Sprintf(format, args...), slog.String("source", "gorm"))
}

func dsn(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}

// NewPostgresDB opens the visits database and checks it answers
func NewPostgresDB(cfg *config.DatabaseConfig, log *slog.Logger) (*PostgresDB, error) {
	if log == nil {
		log = slog.Default()
	}

	gormLogger := logger.New(slogWriter{logger: log}, logger.Config{
		SlowThreshold: slowQuery,
		LogLevel:      gormLogLevel(cfg.LogLevel),
		// a missing visit is an ordinary 404
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(dsn(cfg)), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MinConnections)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
	)

	return &PostgresDB{DB: db, logger: log}, nil
}

// Close releases the connection pool
func (db *PostgresDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	db.logger.Info("closing database connection")
	return sqlDB.Close()
}

// Ping checks the database answers
func (db *PostgresDB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Health reports reachability plus pool usage for /health
func (db *PostgresDB) Health(ctx context.Context) map[string]interface{} {
	if err := db.Ping(ctx); err != nil {
		db.logger.Warn("database health check failed", applog.Err(err))
		return map[string]interface{}{"status": "down", "error": err.Error()}
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return map[string]interface{}{"status": "down", "error": err.Error()}
	}
	stats := sqlDB.Stats()
	return map[string]interface{}{
		"status":           "up",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}
}

// Migrate creates or updates the visits and auth_sessions tables
func (db *PostgresDB) Migrate() error {
	if err := db.DB.AutoMigrate(&domain.Visit{}, &domain.AuthSession{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db.logger.Info("migrations completed", slog.Int("tables", 2))
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug", "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}
