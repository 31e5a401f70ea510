/**
 * Batch Orchestrator
 *
 * Drives the per-image pipeline over one directory, strictly sequentially:
 *
 *	Pending -> OCRInvoked -> Classified -> RowEmitted
 *	                      \-> Failed (logged, skipped, no row)
 *
 * The report is written once, after every eligible image has been attempted.
 */

package batch

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
	"github.com/adverant/nexus/resultocr-worker/internal/logging"
	"github.com/adverant/nexus/resultocr-worker/internal/processor"
)

// AllowedExtensions are matched case-insensitively.
var AllowedExtensions = []string{".png", ".jpg", ".jpeg"}

// ImageProcessor turns one image into one row
type ImageProcessor interface {
	ProcessImage(ctx context.Context, path string) (*processor.ReportRow, error)
}

// ReportWriter persists the whole report at once
type ReportWriter interface {
	Write(path string, rows []processor.ReportRow) error
}

// Sink receives the rows of a run after the report file was written
type Sink interface {
	StoreReport(ctx context.Context, runID string, rows []processor.ReportRow) error
}

// Config holds orchestrator configuration
type Config struct {
	Processor ImageProcessor
	Writer    ReportWriter
	// Timeout bounds one image; zero disables it.
	Timeout time.Duration
	Sinks   []Sink
	Logger  *logging.Logger
}

// Failure records an image that produced no row
type Failure struct {
	Path   string
	Code   errors.ErrorCode
	Reason string
}

// Result summarizes one run
type Result struct {
	RunID      string
	InputDir   string
	OutputPath string
	Rows       []processor.ReportRow
	Failures   []Failure
	Eligible   int
	Duration   time.Duration
}

// Summary returns the run counters for logs and status records.
func (r *Result) Summary() map[string]interface{} {
	return map[string]interface{}{
		"run_id":      r.RunID,
		"input_dir":   r.InputDir,
		"output_path": r.OutputPath,
		"eligible":    r.Eligible,
		"rows":        len(r.Rows),
		"failed":      len(r.Failures),
		"duration_ms": r.Duration.Milliseconds(),
	}
}

// Orchestrator runs batches
type Orchestrator struct {
	processor ImageProcessor
	writer    ReportWriter
	timeout   time.Duration
	sinks     []Sink
	logger    *logging.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.Processor == nil {
		return nil, fmt.Errorf("image processor is required")
	}

	if cfg.Writer == nil {
		return nil, fmt.Errorf("report writer is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %v", cfg.Timeout)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Orchestrator{
		processor: cfg.Processor,
		writer:    cfg.Writer,
		timeout:   cfg.Timeout,
		sinks:     cfg.Sinks,
		logger:    logger,
	}, nil
}

// IsEligible reports whether name has an allowed image extension.
func IsEligible(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ListImages returns the eligible regular files directly inside dir, sorted
// by path so repeated runs process images in the same order.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsEligible(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Run processes every eligible image in inputDir and writes the report to
// outputPath. Per-image failures are recorded in the result; only listing the
// directory, cancellation of ctx, and writing the report fail the run.
func (o *Orchestrator) Run(ctx context.Context, inputDir, outputPath string) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:      uuid.NewString(),
		InputDir:   inputDir,
		OutputPath: outputPath,
		Rows:       []processor.ReportRow{},
	}
	logger := o.logger.With("run_id", result.RunID)

	paths, err := ListImages(inputDir)
	if err != nil {
		return nil, err
	}
	result.Eligible = len(paths)
	logger.Info("Batch started", "input_dir", inputDir, "images", len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			logger.Warn("Batch cancelled, report not written", "error", err)
			return nil, err
		}

		logger.Info("Processing image", "path", path)
		row, err := o.processOne(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("Batch cancelled, report not written", "error", ctx.Err())
				return nil, ctx.Err()
			}
			failure := Failure{Path: path, Code: errors.CodeOf(err), Reason: err.Error()}
			result.Failures = append(result.Failures, failure)
			logger.Warn("Image failed, skipping", "path", path, "code", failure.Code, "error", failure.Reason)
			continue
		}

		result.Rows = append(result.Rows, *row)
		logger.Info("Row emitted", "path", path, "title", row.Title, "level", row.Level, "creation_date", row.CreationDate)
	}

	if err := o.writer.Write(outputPath, result.Rows); err != nil {
		logger.Error("Report write failed", "output_path", outputPath, "error", err)
		return nil, err
	}
	result.Duration = time.Since(start)
	logger.Info("Report written", "output_path", outputPath, "rows", len(result.Rows), "failed", len(result.Failures))

	for _, sink := range o.sinks {
		if err := sink.StoreReport(ctx, result.RunID, result.Rows); err != nil {
			logger.Warn("Report sink failed", "error", err)
		}
	}

	return result, nil
}

// processOne runs one image, converting timeouts and panics into per-image
// errors.
func (o *Orchestrator) processOne(ctx context.Context, path string) (*processor.ReportRow, error) {
	if o.timeout <= 0 {
		return o.safeProcess(ctx, path)
	}

	imageCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type outcome struct {
		row *processor.ReportRow
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		row, err := o.safeProcess(imageCtx, path)
		done <- outcome{row: row, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && stderrors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, errors.NewProcessingTimeoutError(path, o.timeout, out.err)
		}
		return out.row, out.err
	case <-imageCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Wait for the adapter to give up so no two images are ever in
		// flight; its late outcome is discarded.
		<-done
		return nil, errors.NewProcessingTimeoutError(path, o.timeout, imageCtx.Err())
	}
}

func (o *Orchestrator) safeProcess(ctx context.Context, path string) (row *processor.ReportRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			row = nil
			err = errors.NewRecognitionFailedError(path, "adapter", fmt.Errorf("panic: %v", r))
		}
	}()
	return o.processor.ProcessImage(ctx, path)
}
