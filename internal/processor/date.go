package processor

import (
	"time"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
)

const (
	// SourceDateLayout is how adapters format the creation timestamp.
	SourceDateLayout = "2006-01-02 15:04"
	// ReportDateLayout is the creation_date column format.
	ReportDateLayout = "2006-01-02 15:04:05"
)

// ParseCreationDate parses raw as SourceDateLayout.
func ParseCreationDate(raw string) (time.Time, error) {
	t, err := time.Parse(SourceDateLayout, raw)
	if err != nil {
		return time.Time{}, errors.NewDateUnparsableError(raw, err)
	}
	return t, nil
}

// NormalizeDate reformats raw to ReportDateLayout, returning raw unchanged
// when it does not parse.
func NormalizeDate(raw string) string {
	t, err := ParseCreationDate(raw)
	if err != nil {
		return raw
	}
	return t.Format(ReportDateLayout)
}
