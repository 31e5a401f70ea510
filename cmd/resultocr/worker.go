package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adverant/nexus/resultocr-worker/internal/logging"
	"github.com/adverant/nexus/resultocr-worker/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume batch runs from the Redis queue, one at a time",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the worker")
		}

		app, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		consumerCfg := &queue.ConsumerConfig{
			RedisURL:  cfg.RedisURL,
			QueueName: cfg.QueueName,
			Runner:    app.orchestrator,
			Logger:    logging.NewLogger("queue"),
		}

		var status *queue.StatusTracker
		status, err = queue.NewStatusTracker(cmd.Context(), cfg.RedisURL, cfg.QueueName)
		if err != nil {
			logger.Warn("Run status tracking disabled", "error", err)
		} else {
			defer status.Close()
			consumerCfg.Status = status
		}

		consumer, err := queue.NewConsumer(consumerCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize queue consumer: %w", err)
		}
		if err := consumer.Start(); err != nil {
			return fmt.Errorf("failed to start queue consumer: %w", err)
		}
		logger.Info("Worker is ready, waiting for batches", "queue", cfg.QueueName)

		<-cmd.Context().Done()
		logger.Info("Shutdown signal received")
		consumer.Stop()
		if status != nil {
			stats, err := status.Stats(context.Background())
			if err != nil {
				logger.Warn("Failed to read run status counters", "error", err)
			} else {
				logger.Info("Run status at shutdown", "processing", stats["processing"], "completed", stats["completed"], "failed", stats["failed"])
			}
		}
		return nil
	},
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Submit a batch run for the configured input directory and output path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required to enqueue")
		}

		producer, err := queue.NewProducer(cfg.RedisURL, cfg.QueueName)
		if err != nil {
			return err
		}
		defer producer.Close()

		info, err := producer.Enqueue(cmd.Context(), queue.BatchPayload{
			InputDir:   cfg.InputDir,
			OutputPath: cfg.OutputPath,
		})
		if err != nil {
			return fmt.Errorf("failed to enqueue batch: %w", err)
		}
		logger.Info("Batch enqueued", "task_id", info.ID, "queue", info.Queue)
		return nil
	},
}
