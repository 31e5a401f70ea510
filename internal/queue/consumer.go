/**
 * Queue Consumer for the result-screen OCR worker
 *
 * Consumes batch runs from an asynq queue. Concurrency is pinned to one so
 * batches, and the images inside them, are processed strictly in sequence.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/adverant/nexus/resultocr-worker/internal/batch"
	"github.com/adverant/nexus/resultocr-worker/internal/errors"
	"github.com/adverant/nexus/resultocr-worker/internal/logging"
)

// BatchRunner runs one batch
type BatchRunner interface {
	Run(ctx context.Context, inputDir, outputPath string) (*batch.Result, error)
}

// StatusRecorder tracks run state outside the queue
type StatusRecorder interface {
	MarkProcessing(ctx context.Context, taskID string) error
	MarkCompleted(ctx context.Context, taskID string, summary map[string]interface{}) error
	MarkFailed(ctx context.Context, taskID string, cause error) error
}

// Consumer handles batch consumption from the Redis queue
type Consumer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner BatchRunner
	status StatusRecorder
	config *ConsumerConfig
	logger *logging.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL  string
	QueueName string
	Runner    BatchRunner
	Status    StatusRecorder // optional
	Logger    *logging.Logger
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}

	if cfg.Runner == nil {
		return nil, fmt.Errorf("Runner is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				cfg.QueueName: 1,
			},
			// Exponential backoff: 5s, 10s, 20s
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task processing error", "type", task.Type(), "payload", string(task.Payload()), "error", err)
			}),
		},
	)

	consumer := &Consumer{
		server: server,
		mux:    asynq.NewServeMux(),
		runner: cfg.Runner,
		status: cfg.Status,
		config: cfg,
		logger: logger,
	}

	consumer.mux.HandleFunc(TypeProcessBatch, consumer.handleProcessBatch)

	return consumer, nil
}

// Start starts the queue consumer without blocking
func (c *Consumer) Start() error {
	c.logger.Info("Starting queue consumer", "queue", c.config.QueueName)
	return c.server.Start(c.mux)
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop() {
	c.logger.Info("Stopping queue consumer")
	c.server.Shutdown()
}

// handleProcessBatch runs one batch task
func (c *Consumer) handleProcessBatch(ctx context.Context, task *asynq.Task) error {
	taskID, _ := asynq.GetTaskID(ctx)

	var payload BatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal batch payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("invalid batch payload: %v: %w", err, asynq.SkipRetry)
	}

	c.recordStatus(func() error { return c.status.MarkProcessing(ctx, taskID) })

	result, err := c.runner.Run(ctx, payload.InputDir, payload.OutputPath)
	if err != nil {
		c.recordStatus(func() error { return c.status.MarkFailed(ctx, taskID, err) })
		if errors.CodeOf(err) == errors.ErrorWriteFailed {
			// A rerun would redo every image only to hit the same write.
			return fmt.Errorf("batch %s failed: %w: %w", taskID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("batch %s failed: %w", taskID, err)
	}

	c.logger.Info("Batch task completed", "task_id", taskID, "rows", len(result.Rows), "failed", len(result.Failures))
	c.recordStatus(func() error { return c.status.MarkCompleted(ctx, taskID, result.Summary()) })
	return nil
}

func (c *Consumer) recordStatus(update func() error) {
	if c.status == nil {
		return
	}
	if err := update(); err != nil {
		c.logger.Warn("Failed to update run status", "error", err)
	}
}
