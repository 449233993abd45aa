package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteKV keeps form recovery keys in an embedded SQLite database
type SQLiteKV struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSQLiteKV opens (or creates) the database at dbPath. Entries older than
// ttl read as absent; ttl <= 0 keeps them forever.
func NewSQLiteKV(dbPath string, ttl time.Duration, logger *slog.Logger) (*SQLiteKV, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	kv := &SQLiteKV{db: db, ttl: ttl, now: time.Now, logger: logger}
	if err := kv.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return kv, nil
}

func (kv *SQLiteKV) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS recovery_keys (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recovery_keys_updated ON recovery_keys(updated_at);
	`
	if _, err := kv.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get returns the value stored under key
func (kv *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var updatedAt int64

	row := kv.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM recovery_keys WHERE key = ?`, key)
	err := row.Scan(&value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("scan recovery key: %w", err)
	}

	if kv.ttl > 0 && kv.now().Sub(time.UnixMilli(updatedAt)) > kv.ttl {
		return "", false, nil
	}
	return value, true, nil
}

// Set stores value under key
func (kv *SQLiteKV) Set(ctx context.Context, key, value string) error {
	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO recovery_keys (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, kv.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert recovery key: %w", err)
	}
	return nil
}

// Remove deletes key; a missing key is not an error
func (kv *SQLiteKV) Remove(ctx context.Context, key string) error {
	if _, err := kv.db.ExecContext(ctx, `DELETE FROM recovery_keys WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete recovery key: %w", err)
	}
	return nil
}

// PurgeExpired deletes entries past the ttl
func (kv *SQLiteKV) PurgeExpired(ctx context.Context) (int64, error) {
	if kv.ttl <= 0 {
		return 0, nil
	}
	cutoff := kv.now().Add(-kv.ttl).UnixMilli()
	res, err := kv.db.ExecContext(ctx, `DELETE FROM recovery_keys WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge recovery keys: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rows affected: %w", err)
	}
	if n > 0 {
		kv.logger.Info("expired recovery keys purged", slog.Int64("count", n))
	}
	return n, nil
}

// Close closes the database
func (kv *SQLiteKV) Close() error {
	return kv.db.Close()
}
