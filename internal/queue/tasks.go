package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeProcessBatch is the asynq task type for one batch run
const TypeProcessBatch = "process-batch"

// BatchPayload is the task body
type BatchPayload struct {
	InputDir    string    `json:"input_dir"`
	OutputPath  string    `json:"output_path"`
	RequestedAt time.Time `json:"requested_at"`
}

// Validate checks that both paths are present
func (p *BatchPayload) Validate() error {
	if p.InputDir == "" {
		return fmt.Errorf("input_dir is required")
	}
	if p.OutputPath == "" {
		return fmt.Errorf("output_path is required")
	}
	return nil
}

// NewProcessBatchTask builds a task for payload
func NewProcessBatchTask(payload BatchPayload) (*asynq.Task, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if payload.RequestedAt.IsZero() {
		payload.RequestedAt = time.Now().UTC()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch payload: %w", err)
	}
	return asynq.NewTask(TypeProcessBatch, data), nil
}

// Producer submits batch runs
type Producer struct {
	client    *asynq.Client
	queueName string
}

// NewProducer creates a producer for queueName
func NewProducer(redisURL, queueName string) (*Producer, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if queueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}

	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return &Producer{client: asynq.NewClient(redisOpt), queueName: queueName}, nil
}

// Enqueue submits one batch run
func (p *Producer) Enqueue(ctx context.Context, payload BatchPayload) (*asynq.TaskInfo, error) {
	task, err := NewProcessBatchTask(payload)
	if err != nil {
		return nil, err
	}
	return p.client.EnqueueContext(ctx, task, asynq.Queue(p.queueName), asynq.MaxRetry(3))
}

// Close releases the Redis connection
func (p *Producer) Close() error {
	return p.client.Close()
}
