/**
 * OCR Types - Shared data structures for result-screen extraction
 *
 * Observations are produced by an OCRAdapter, labeled by the RegionClassifier
 * and folded into one ReportRow per image.
 */

package processor

import (
	"context"
	"math"
)

// Label is the semantic field an observation was classified into
type Label string

const (
	LabelUnlabeled Label = "unlabeled"
	LabelTitle     Label = "title"
	LabelLevel     Label = "level"
)

// BoundingBox is a rectangle normalized to the unit square. The origin is the
// bottom-left corner of the image, so y grows upwards.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InUnitSquare reports whether every coordinate lies in [0,1].
func (b BoundingBox) InUnitSquare() bool {
	for _, v := range []float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// TextObservation is one recognized text fragment
type TextObservation struct {
	Text        string
	BoundingBox BoundingBox
	Label       Label
}

// WithLabel returns a copy of the observation carrying label.
func (o TextObservation) WithLabel(label Label) TextObservation {
	o.Label = label
	return o
}

// ImageRecord is everything one adapter call yields for one image
type ImageRecord struct {
	Path         string
	Observations []TextObservation
	// CreationTimestamp is formatted as SourceDateLayout; empty when unknown.
	CreationTimestamp string
}

// ReportRow is one line of the output report
type ReportRow struct {
	Title        string
	Level        string
	CreationDate string
}

// OCRAdapter recognizes text on a single image. Every returned observation is
// LabelUnlabeled; the order of observations is engine defined.
type OCRAdapter interface {
	Name() string
	Recognize(ctx context.Context, path string) (*ImageRecord, error)
}
