package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileKV keeps form recovery keys as small files on the local disk, one
// file per key
type FileKV struct {
	basePath string
	logger   *slog.Logger
}

// FileKVConfig for local recovery storage
type FileKVConfig struct {
	BasePath string // e.g. "./data/recovery"
}

// NewFileKV creates the store and its base directory
func NewFileKV(cfg *FileKVConfig, logger *slog.Logger) (*FileKV, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.BasePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileKV{
		basePath: cfg.BasePath,
		logger:   logger,
	}, nil
}

// path hashes the key so arbitrary key text maps to a safe file name
func (s *FileKV) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.basePath, hex.EncodeToString(sum[:]))
}

// Get returns the value stored under key
func (s *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key file: %w", err)
	}
	return string(data), true, nil
}

// Set stores value under key. The write goes through a temp file and a
// rename so a crash never leaves a torn value.
func (s *FileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close key file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit key file: %w", err)
	}

	s.logger.Debug("recovery key written", slog.String("key", key))
	return nil
}

// Remove deletes key; a missing key is not an error
func (s *FileKV) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key file: %w", err)
	}
	return nil
}

// CleanupOldFiles removes keys not written for longer than olderThan
func (s *FileKV) CleanupOldFiles(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoffTime := time.Now().Add(-olderThan)

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read base directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}

		filePath := filepath.Join(s.basePath, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to get file info",
				slog.String("path", filePath),
				slog.Any("error", err))
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			if err := os.Remove(filePath); err != nil {
				s.logger.Warn("failed to remove stale key",
					slog.String("path", filePath),
					slog.Any("error", err))
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("cleanup completed",
			slog.Int("removed", removed),
			slog.Duration("older_than", olderThan))
	}
	return removed, nil
}
