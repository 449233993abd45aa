// Field visits API server and notification worker
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/door2door/fieldvisits/internal/api"
	"github.com/door2door/fieldvisits/internal/core/services/auth"
	"github.com/door2door/fieldvisits/internal/core/services/notification"
	"github.com/door2door/fieldvisits/internal/core/services/refinery"
	"github.com/door2door/fieldvisits/internal/core/services/visits"
	"github.com/door2door/fieldvisits/internal/infrastructure/cache"
	"github.com/door2door/fieldvisits/internal/infrastructure/database"
	"github.com/door2door/fieldvisits/internal/infrastructure/database/repositories"
	"github.com/door2door/fieldvisits/internal/infrastructure/queue"
	"github.com/door2door/fieldvisits/internal/pkg/config"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

const sessionPurgeInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", logger.Err(err))
		os.Exit(1)
	}

	log := logger.Initialize(cfg.Environment)
	cfg.LogConfig()

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", logger.Err(err))
		os.Exit(1)
	}
	log.Info("Server stopped successfully")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	db, err := database.NewPostgresDB(cfg.Database(), logger.NewServiceLogger("database"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database", logger.Err(closeErr))
		}
	}()
	if err := db.Migrate(); err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.Cache(), logger.NewServiceLogger("cache"))
	if err != nil {
		return err
	}
	defer redisCache.Close()

	// Notifications
	queueClient, err := queue.NewAsynqClient(cfg.Queue(), logger.NewServiceLogger("queue"))
	if err != nil {
		return err
	}
	defer queueClient.Close()

	notifyCfg := notification.DefaultConfig()
	notifyCfg.Queue = queue.QueueNotifications
	if cfg.WorkerMaxRetries > 0 {
		notifyCfg.MaxRetry = cfg.WorkerMaxRetries
	}
	notifier := notification.NewService(notifyCfg, queueClient, logger.NewServiceLogger("notification"))

	worker, err := queue.NewAsynqServer(cfg.Queue(), logger.NewServiceLogger("worker"))
	if err != nil {
		return err
	}
	mailer := notification.NewSMTPMailer(cfg.Mail(), logger.NewServiceLogger("mailer"))
	handler := notification.NewHandler(mailer, logger.NewServiceLogger("notification_worker"))
	worker.HandleFunc(notification.TaskTypeVisitNotify, handler.ProcessTask)
	if err := worker.Start(); err != nil {
		return err
	}
	defer worker.Shutdown()

	// Services
	cleaner, err := refinery.NewVisitCleaner()
	if err != nil {
		return err
	}
	for _, d := range cleaner.Pipelines() {
		log.Debug("Text refinery loaded",
			slog.String("version", d.Version),
			slog.Int("steps", len(d.Steps)))
	}
	visitSvc := visits.NewService(
		visits.DefaultConfig(),
		repositories.NewVisitRepository(db.DB, logger.NewServiceLogger("visit_repository")),
		notifier,
		cleaner,
		logger.NewServiceLogger("visits"),
	)

	authCfg := auth.DefaultConfig()
	authCfg.Password = cfg.AuthPassword
	authCfg.Secret = []byte(cfg.SessionSecret)
	if cfg.SessionTTL > 0 {
		authCfg.TTL = cfg.SessionTTL
	}
	authSvc, err := auth.NewService(
		authCfg,
		repositories.NewAuthSessionRepository(db.DB, logger.NewServiceLogger("auth_session_repository")),
		logger.NewServiceLogger("auth"),
	)
	if err != nil {
		return err
	}
	go purgeSessions(ctx, authSvc, log)

	router := api.NewRouter(api.RouterConfig{
		Visits:         visitSvc,
		Auth:           authSvc,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
		Health: map[string]api.HealthCheck{
			"database": db.Health,
			"redis":    redisCache.Health,
		},
		Logger: logger.NewServiceLogger("api"),
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	stop()

	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// purgeSessions removes expired auth sessions until ctx ends
func purgeSessions(ctx context.Context, svc *auth.Service, log *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := svc.PurgeExpired(ctx); err != nil {
				log.Warn("Session purge failed", logger.Err(err))
			} else if n > 0 {
				log.Info("Expired sessions purged", slog.Int64("count", n))
			}
		}
	}
}
