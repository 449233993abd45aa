package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/door2door/fieldvisits/internal/core/services/formsession"
	"github.com/door2door/fieldvisits/internal/infrastructure/cache"
	"github.com/door2door/fieldvisits/internal/infrastructure/storage"
	"github.com/door2door/fieldvisits/internal/pkg/config"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// activeSessionKey remembers the session key of the form in progress so a
// crashed host can offer to resume it
const activeSessionKey = "visitform:active"

// openRecoveryStore builds the key store selected by RECOVERY_BACKEND. The
// returned close func releases it.
func openRecoveryStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (formsession.KeyValueStore, func(), error) {
	noop := func() {}

	switch cfg.RecoveryBackend {
	case config.RecoveryBackendMemory:
		return formsession.NewMemoryStore(), noop, nil

	case config.RecoveryBackendFile:
		kv, err := storage.NewFileKV(&storage.FileKVConfig{BasePath: cfg.RecoveryDir}, log)
		if err != nil {
			return nil, nil, err
		}
		if removed, err := kv.CleanupOldFiles(ctx, cfg.RecoveryTTL); err != nil {
			log.Warn("Recovery cleanup failed", logger.Err(err))
		} else if removed > 0 {
			log.Debug("Stale recovery entries removed", slog.Int("count", removed))
		}
		return kv, noop, nil

	case config.RecoveryBackendRedis:
		rc, err := cache.NewRedisCache(cfg.Cache(), log)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRecoveryKV(rc, cfg.RecoveryTTL), func() { _ = rc.Close() }, nil

	case config.RecoveryBackendSQLite:
		if err := os.MkdirAll(cfg.RecoveryDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("create recovery directory: %w", err)
		}
		kv, err := storage.NewSQLiteKV(filepath.Join(cfg.RecoveryDir, "recovery.db"), cfg.RecoveryTTL, log)
		if err != nil {
			return nil, nil, err
		}
		if purged, err := kv.PurgeExpired(ctx); err != nil {
			log.Warn("Recovery purge failed", logger.Err(err))
		} else if purged > 0 {
			log.Debug("Expired recovery entries purged", slog.Int64("count", purged))
		}
		return kv, func() { _ = kv.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unsupported recovery backend %q", cfg.RecoveryBackend)
}
