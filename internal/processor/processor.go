/**
 * Image Processor for the result-screen OCR worker
 *
 * Runs one image through the pipeline:
 * OCR adapter -> region classifier -> field extractor + date normalizer -> row
 */

package processor

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
	"github.com/adverant/nexus/resultocr-worker/internal/logging"
)

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	Adapter     OCRAdapter
	Windows     []Window
	LevelMarker string
	Logger      *logging.Logger
}

// ImageProcessor builds report rows from images
type ImageProcessor struct {
	adapter    OCRAdapter
	classifier *RegionClassifier
	extractor  *FieldExtractor
	logger     *logging.Logger
}

// NewImageProcessor creates a new image processor
func NewImageProcessor(cfg *ProcessorConfig) (*ImageProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.Adapter == nil {
		return nil, fmt.Errorf("OCR adapter is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &ImageProcessor{
		adapter:    cfg.Adapter,
		classifier: NewRegionClassifier(cfg.Windows),
		extractor:  NewFieldExtractor(cfg.LevelMarker),
		logger:     logger,
	}, nil
}

// ProcessImage recognizes path and builds its row. Any error means the image
// contributes no row.
func (p *ImageProcessor) ProcessImage(ctx context.Context, path string) (*ReportRow, error) {
	p.logger.Debug("OCR invoked", "path", path, "engine", p.adapter.Name())

	record, err := p.adapter.Recognize(ctx, path)
	if err != nil {
		var pe *errors.ProcessingError
		if stderrors.As(err, &pe) || stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errors.NewRecognitionFailedError(path, p.adapter.Name(), err)
	}
	if record == nil {
		return nil, errors.NewPayloadMalformedError(path, "adapter returned no record", nil)
	}

	for i, obs := range record.Observations {
		if !obs.BoundingBox.InUnitSquare() {
			return nil, errors.NewPayloadMalformedError(path, fmt.Sprintf("observation %d has a box outside the unit square", i), nil)
		}
	}

	row := p.BuildRow(record)
	p.logger.Debug("Classified", "path", path, "observations", len(record.Observations))
	return &row, nil
}

// BuildRow labels the record's observations and folds them into a row.
func (p *ImageProcessor) BuildRow(record *ImageRecord) ReportRow {
	labeled := p.classifier.LabelAll(record.Observations)
	fields := p.extractor.Extract(labeled)

	return ReportRow{
		Title:        fields.Title,
		Level:        fields.Level,
		CreationDate: NormalizeDate(record.CreationTimestamp),
	}
}
