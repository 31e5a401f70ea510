package processor

import (
	"strings"

	"golang.org/x/text/width"
)

// DefaultLevelMarker precedes the level value on the result screen.
const DefaultLevelMarker = "楽曲LV."

// Fields are the values pulled out of one image's observations
type Fields struct {
	Title string
	Level string
}

// FieldExtractor turns labeled observations into report fields
type FieldExtractor struct {
	marker string
}

// NewFieldExtractor creates an extractor that falls back to fragments
// containing marker when the level window yields nothing.
func NewFieldExtractor(marker string) *FieldExtractor {
	if marker == "" {
		marker = DefaultLevelMarker
	}
	return &FieldExtractor{marker: width.Fold.String(marker)}
}

// ExtractLevel splits text on '.' and returns the second part when there are
// exactly two parts and the second is not empty. The returned value is
// width-folded and trimmed, not the raw second part.
func ExtractLevel(text string) (string, bool) {
	parts := strings.Split(width.Fold.String(text), ".")
	if len(parts) != 2 {
		return "", false
	}
	level := strings.TrimSpace(parts[1])
	if level == "" {
		return "", false
	}
	return level, true
}

// Extract picks the title and level out of labeled observations.
//
// The title is the first Title observation, or failing that the first
// Unlabeled one in engine order. That fallback depends on the order the
// engine returns fragments in and is a heuristic.
func (e *FieldExtractor) Extract(observations []TextObservation) Fields {
	var f Fields
	f.Title = e.title(observations)
	f.Level = e.level(observations)
	return f
}

func (e *FieldExtractor) title(observations []TextObservation) string {
	for _, obs := range observations {
		if obs.Label == LabelTitle {
			return obs.Text
		}
	}
	for _, obs := range observations {
		if obs.Label == LabelUnlabeled {
			return obs.Text
		}
	}
	return ""
}

func (e *FieldExtractor) level(observations []TextObservation) string {
	for _, obs := range observations {
		if obs.Label != LabelLevel {
			continue
		}
		if level, ok := ExtractLevel(obs.Text); ok {
			return level
		}
	}
	for _, obs := range observations {
		if !strings.Contains(width.Fold.String(obs.Text), e.marker) {
			continue
		}
		if level, ok := ExtractLevel(obs.Text); ok {
			return level
		}
	}
	return ""
}
