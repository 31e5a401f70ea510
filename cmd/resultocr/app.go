package main

import (
	"context"
	"fmt"

	"github.com/adverant/nexus/resultocr-worker/internal/batch"
	"github.com/adverant/nexus/resultocr-worker/internal/config"
	"github.com/adverant/nexus/resultocr-worker/internal/logging"
	"github.com/adverant/nexus/resultocr-worker/internal/processor"
	"github.com/adverant/nexus/resultocr-worker/internal/report"
	"github.com/adverant/nexus/resultocr-worker/internal/storage"
)

// app wires the pipeline for one process
type app struct {
	orchestrator *batch.Orchestrator
	db           *storage.PostgresClient
}

func newAdapter(cfg *config.Config) (processor.OCRAdapter, error) {
	switch cfg.OCRBackend {
	case config.BackendCommand:
		return processor.NewCommandOCR(&processor.CommandConfig{Command: cfg.OCRCommand})
	case config.BackendTesseract:
		return processor.NewTesseractOCR(&processor.TesseractConfig{Languages: cfg.OCRLanguages}), nil
	default:
		return nil, fmt.Errorf("unknown OCR backend %q", cfg.OCRBackend)
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	adapter, err := newAdapter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR adapter: %w", err)
	}
	logger.Info("OCR adapter initialized", "engine", adapter.Name(), "languages", cfg.OCRLanguages)

	proc, err := processor.NewImageProcessor(&processor.ProcessorConfig{
		Adapter:     adapter,
		LevelMarker: cfg.LevelMarker,
		Logger:      logging.NewLogger("processor"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image processor: %w", err)
	}

	a := &app{}
	var sinks []batch.Sink
	if cfg.DatabaseURL != "" {
		db, err := storage.NewPostgresClient(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("PostgreSQL unavailable, rows will only be written to CSV", "error", err)
		} else {
			a.db = db
			sinks = append(sinks, db)
			logger.Info("PostgreSQL sink enabled")
		}
	}

	a.orchestrator, err = batch.NewOrchestrator(&batch.Config{
		Processor: proc,
		Writer:    report.NewCSVWriter(),
		Timeout:   cfg.OCRTimeout,
		Sinks:     sinks,
		Logger:    logging.NewLogger("batch"),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
