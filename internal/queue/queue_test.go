package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/nexus/resultocr-worker/internal/batch"
	"github.com/adverant/nexus/resultocr-worker/internal/errors"
	"github.com/adverant/nexus/resultocr-worker/internal/logging"
)

type fakeRunner struct {
	inputDir, outputPath string
	result               *batch.Result
	err                  error
}

func (f *fakeRunner) Run(ctx context.Context, inputDir, outputPath string) (*batch.Result, error) {
	f.inputDir, f.outputPath = inputDir, outputPath
	return f.result, f.err
}

type fakeStatus struct {
	events  []string
	summary map[string]interface{}
	cause   error
}

func (f *fakeStatus) MarkProcessing(ctx context.Context, taskID string) error {
	f.events = append(f.events, "processing")
	return nil
}

func (f *fakeStatus) MarkCompleted(ctx context.Context, taskID string, summary map[string]interface{}) error {
	f.events = append(f.events, "completed")
	f.summary = summary
	return nil
}

func (f *fakeStatus) MarkFailed(ctx context.Context, taskID string, cause error) error {
	f.events = append(f.events, "failed")
	f.cause = cause
	return nil
}

func newTestConsumer(runner BatchRunner, status StatusRecorder) *Consumer {
	return &Consumer{
		runner: runner,
		status: status,
		config: &ConsumerConfig{QueueName: "test"},
		logger: logging.NewNop(),
	}
}

func TestNewProcessBatchTask(t *testing.T) {
	task, err := NewProcessBatchTask(BatchPayload{InputDir: "images/v2", OutputPath: "output.csv"})
	require.NoError(t, err)
	assert.Equal(t, TypeProcessBatch, task.Type())

	var payload BatchPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "images/v2", payload.InputDir)
	assert.Equal(t, "output.csv", payload.OutputPath)
	assert.False(t, payload.RequestedAt.IsZero())

	_, err = NewProcessBatchTask(BatchPayload{InputDir: "images"})
	assert.Error(t, err)
}

func TestHandleProcessBatchSuccess(t *testing.T) {
	runner := &fakeRunner{result: &batch.Result{RunID: "run-1"}}
	status := &fakeStatus{}
	task, err := NewProcessBatchTask(BatchPayload{InputDir: "in", OutputPath: "out.csv"})
	require.NoError(t, err)

	require.NoError(t, newTestConsumer(runner, status).handleProcessBatch(context.Background(), task))

	assert.Equal(t, "in", runner.inputDir)
	assert.Equal(t, "out.csv", runner.outputPath)
	assert.Equal(t, []string{"processing", "completed"}, status.events)
	assert.Equal(t, "run-1", status.summary["run_id"])
}

func TestHandleProcessBatchWriteFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.NewWriteFailedError("out.csv", stderrors.New("disk full"))}
	status := &fakeStatus{}
	task, err := NewProcessBatchTask(BatchPayload{InputDir: "in", OutputPath: "out.csv"})
	require.NoError(t, err)

	err = newTestConsumer(runner, status).handleProcessBatch(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorWriteFailed, errors.CodeOf(err))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, []string{"processing", "failed"}, status.events)
}

func TestHandleProcessBatchOtherFailuresRetry(t *testing.T) {
	runner := &fakeRunner{err: errors.NewStorageFailedError("run-1", stderrors.New("connection refused"))}
	task, err := NewProcessBatchTask(BatchPayload{InputDir: "in", OutputPath: "out.csv"})
	require.NoError(t, err)

	err = newTestConsumer(runner, nil).handleProcessBatch(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleProcessBatchBadPayloadSkipsRetry(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner, nil)

	err := c.handleProcessBatch(context.Background(), asynq.NewTask(TypeProcessBatch, []byte("{")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = c.handleProcessBatch(context.Background(), asynq.NewTask(TypeProcessBatch, []byte(`{"input_dir":"in"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, runner.inputDir)
}

func TestStatusKeysAndFailureRecord(t *testing.T) {
	s := newStatusTracker(nil, "resultocr:batches")
	assert.Equal(t, "resultocr:batches:completed", s.key("completed"))

	rec := failureRecord(errors.NewWriteFailedError("out.csv", stderrors.New("disk full")))
	assert.Equal(t, "WRITE_FAILED", rec["error_code"])
	assert.Equal(t, "out.csv", rec["path"])

	assert.Equal(t, map[string]interface{}{"error": "plain"}, failureRecord(stderrors.New("plain")))
}

func TestNewConsumerValidation(t *testing.T) {
	_, err := NewConsumer(&ConsumerConfig{QueueName: "q", Runner: &fakeRunner{}})
	assert.Error(t, err)
	_, err = NewConsumer(&ConsumerConfig{RedisURL: "redis://localhost:6379", Runner: &fakeRunner{}})
	assert.Error(t, err)
	_, err = NewConsumer(&ConsumerConfig{RedisURL: "redis://localhost:6379", QueueName: "q"})
	assert.Error(t, err)
}

func TestStatsReportsUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	stats, err := newStatusTracker(client, "resultocr:batches").Stats(context.Background())
	assert.Error(t, err)
	assert.Nil(t, stats)
}

func TestStatsCountsEachSet(t *testing.T) {
	redisURL := os.Getenv("REDIS_TEST_URL")
	if redisURL == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	ctx := context.Background()
	prefix := "resultocr-test:" + t.Name()
	s, err := NewStatusTracker(ctx, redisURL, prefix)
	require.NoError(t, err)
	defer s.Close()
	defer s.client.Del(ctx, s.key("processing"), s.key("completed"), s.key("failed"), s.key("results"), s.key("errors"))

	require.NoError(t, s.MarkProcessing(ctx, "a"))
	require.NoError(t, s.MarkProcessing(ctx, "b"))
	require.NoError(t, s.MarkProcessing(ctx, "c"))
	require.NoError(t, s.MarkCompleted(ctx, "a", map[string]interface{}{"rows": 1}))
	require.NoError(t, s.MarkFailed(ctx, "b", stderrors.New("boom")))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"processing": 1, "completed": 1, "failed": 1}, stats)
}
