package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/door2door/fieldvisits/internal/pkg/config"
	"github.com/door2door/fieldvisits/internal/pkg/logger"
)

// Queues the worker listens on. Visit notifications outrank anything else.
const (
	QueueNotifications = "notifications"
	QueueDefault       = "default"
)

// queueWeights feeds asynq's weighted (or strict) priority
var queueWeights = map[string]int{
	QueueNotifications: 5,
	QueueDefault:       1,
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
}

// retryDelay backs off exponentially: 2s, 4s, 8s, ... capped at 10 minutes
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 1 {
		n = 1
	}
	if n > 9 {
		return 10 * time.Minute
	}
	return time.Duration(1<<uint(n)) * time.Second
}

// AsynqClient enqueues notification tasks
type AsynqClient struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewAsynqClient creates a new Asynq client
func NewAsynqClient(cfg *config.QueueConfig, log *slog.Logger) (*AsynqClient, error) {
	if log == nil {
		log = slog.Default()
	}

	client := asynq.NewClient(redisOpt(cfg))

	log.Info("asynq client created",
		slog.String("redis_host", cfg.RedisHost),
		slog.Int("redis_port", cfg.RedisPort),
	)

	return &AsynqClient{
		client: client,
		logger: log,
	}, nil
}

// Close closes the Asynq client
func (a *AsynqClient) Close() error {
	a.logger.Info("closing asynq client")
	return a.client.Close()
}

// EnqueueContext enqueues a task with context
func (a *AsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	info, err := a.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		a.logger.Debug("task already enqueued", slog.String("task_type", task.Type()))
		return nil, err
	}
	if err != nil {
		a.logger.Error("failed to enqueue task",
			slog.String("task_type", task.Type()),
			logger.Err(err),
		)
		return nil, err
	}

	a.logger.Debug("task enqueued",
		slog.String("task_id", info.ID),
		slog.String("task_type", task.Type()),
		slog.String("queue", info.Queue),
	)

	return info, nil
}

// AsynqServer runs the notification worker
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewAsynqServer creates a new Asynq server
func NewAsynqServer(cfg *config.QueueConfig, log *slog.Logger) (*AsynqServer, error) {
	if log == nil {
		log = slog.Default()
	}

	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency:    cfg.Concurrency,
			Queues:         queueWeights,
			StrictPriority: cfg.StrictPriority,
			RetryDelayFunc: retryDelay,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.Error("task processing failed",
					slog.String("task_type", task.Type()),
					slog.Int("retried", retried),
					slog.Int("max_retry", maxRetry),
					logger.Err(err),
				)
			}),
			HealthCheckFunc: func(e error) {
				if e != nil {
					log.Error("redis health check failed", logger.Err(e))
				}
			},
			HealthCheckInterval: 20 * time.Second,
			ShutdownTimeout: 25 * time.Second,
		},
	)

	mux := asynq.NewServeMux()

	log.Info("asynq server created",
		slog.String("redis_host", cfg.RedisHost),
		slog.Int("redis_port", cfg.RedisPort),
		slog.Int("concurrency", cfg.Concurrency),
	)

	return &AsynqServer{
		server: server,
		mux:    mux,
		logger: log,
	}, nil
}

// HandleFunc registers a handler function for a task type
func (a *AsynqServer) HandleFunc(pattern string, handler func(context.Context, *asynq.Task) error) {
	a.mux.HandleFunc(pattern, handler)
	a.logger.Debug("handler registered", slog.String("pattern", pattern))
}

// Start begins processing in the background; pair it with Shutdown
func (a *AsynqServer) Start() error {
	a.logger.Info("starting asynq server")
	if err := a.server.Start(a.mux); err != nil {
		return fmt.Errorf("failed to start asynq server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (a *AsynqServer) Shutdown() {
	a.logger.Info("shutting down asynq server")
	a.server.Shutdown()
}
