/**
 * Tesseract OCR - in-process adapter
 *
 * Recognizes text lines with gosseract and normalizes their pixel boxes to the
 * unit square with a bottom-left origin, which is the convention the
 * classifier windows are calibrated against.
 */

package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
)

// TesseractOCR handles OCR using Tesseract
type TesseractOCR struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// TesseractConfig holds Tesseract configuration
type TesseractConfig struct {
	Languages []string
}

// NewTesseractOCR creates a new Tesseract OCR instance
func NewTesseractOCR(cfg *TesseractConfig) *TesseractOCR {
	languages := []string{"jpn", "eng"}
	if cfg != nil && len(cfg.Languages) > 0 {
		languages = cfg.Languages
	}

	return &TesseractOCR{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (t *TesseractOCR) Name() string { return "tesseract" }

// Recognize performs OCR on one image file
func (t *TesseractOCR) Recognize(ctx context.Context, path string) (*ImageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.NewImageUnreadableError(path, err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.NewImageUnreadableError(path, fmt.Errorf("image has no pixels"))
	}

	// Grayscale improves recognition on the colored result screen
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Grayscale(img), imaging.PNG); err != nil {
		return nil, errors.NewImageUnreadableError(path, fmt.Errorf("failed to re-encode image: %w", err))
	}

	client := t.clientFactory()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, errors.NewRecognitionFailedError(path, t.Name(), fmt.Errorf("set languages: %w", err))
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, errors.NewRecognitionFailedError(path, t.Name(), fmt.Errorf("set image: %w", err))
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, errors.NewRecognitionFailedError(path, t.Name(), err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observations := make([]TextObservation, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		observations = append(observations, TextObservation{
			Text:        text,
			BoundingBox: normalizeBox(b.Box, bounds.Dx(), bounds.Dy()),
			Label:       LabelUnlabeled,
		})
	}

	record := &ImageRecord{
		Path:         path,
		Observations: observations,
	}
	if ts, ok := CreationTimestamp(path); ok {
		record.CreationTimestamp = ts
	}

	return record, nil
}

// normalizeBox converts a top-left origin pixel rectangle into a unit-square
// box with a bottom-left origin.
func normalizeBox(r image.Rectangle, width, height int) BoundingBox {
	if width <= 0 || height <= 0 {
		return BoundingBox{}
	}
	w := float64(width)
	h := float64(height)
	return BoundingBox{
		X:      clamp01(float64(r.Min.X) / w),
		Y:      clamp01(1 - float64(r.Max.Y)/h),
		Width:  clamp01(float64(r.Dx()) / w),
		Height: clamp01(float64(r.Dy()) / h),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
