package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
)

// StatusTracker keeps run state in Redis sets and hashes under one prefix
type StatusTracker struct {
	client *redis.Client
	prefix string
}

// NewStatusTracker connects to redisURL
func NewStatusTracker(ctx context.Context, redisURL, prefix string) (*StatusTracker, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newStatusTracker(client, prefix), nil
}

func newStatusTracker(client *redis.Client, prefix string) *StatusTracker {
	return &StatusTracker{client: client, prefix: prefix}
}

func (s *StatusTracker) key(suffix string) string {
	return fmt.Sprintf("%s:%s", s.prefix, suffix)
}

// MarkProcessing records that a run started
func (s *StatusTracker) MarkProcessing(ctx context.Context, taskID string) error {
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.key("processing"), taskID)
	s.publish(ctx, pipe, "processing", taskID)
	_, err := pipe.Exec(ctx)
	return err
}

// MarkCompleted moves a run to the completed set and stores its summary
func (s *StatusTracker) MarkCompleted(ctx context.Context, taskID string, summary map[string]interface{}) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, s.key("processing"), taskID)
	pipe.SAdd(ctx, s.key("completed"), taskID)
	pipe.HSet(ctx, s.key("results"), taskID, data)
	s.publish(ctx, pipe, "completed", taskID)
	_, err = pipe.Exec(ctx)
	return err
}

// MarkFailed moves a run to the failed set and stores the cause
func (s *StatusTracker) MarkFailed(ctx context.Context, taskID string, cause error) error {
	data, err := json.Marshal(failureRecord(cause))
	if err != nil {
		return fmt.Errorf("failed to marshal failure: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.SRem(ctx, s.key("processing"), taskID)
	pipe.SAdd(ctx, s.key("failed"), taskID)
	pipe.HSet(ctx, s.key("errors"), taskID, data)
	s.publish(ctx, pipe, "failed", taskID)
	_, err = pipe.Exec(ctx)
	return err
}

// Stats returns the size of each status set
func (s *StatusTracker) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, 3)
	for _, name := range []string{"processing", "completed", "failed"} {
		n, err := s.client.SCard(ctx, s.key(name)).Result()
		if err != nil {
			return nil, err
		}
		stats[name] = n
	}
	return stats, nil
}

// Close closes the Redis connection
func (s *StatusTracker) Close() error {
	return s.client.Close()
}

func (s *StatusTracker) publish(ctx context.Context, pipe redis.Pipeliner, status, taskID string) {
	event, _ := json.Marshal(map[string]interface{}{
		"event":     fmt.Sprintf("batch:%s", status),
		"taskId":    taskID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	pipe.Publish(ctx, s.key("events"), event)
}

// failureRecord prefers the structured form of a ProcessingError
func failureRecord(cause error) map[string]interface{} {
	if cause == nil {
		return map[string]interface{}{"error": "unknown error"}
	}
	var pe *errors.ProcessingError
	if stderrors.As(cause, &pe) {
		return pe.ToMap()
	}
	return map[string]interface{}{"error": cause.Error()}
}
