package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/moby/sys/atomicwriter"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
	"github.com/adverant/nexus/resultocr-worker/internal/processor"
)

// Header is the fixed first line of every report.
var Header = []string{"title", "level", "creation_date"}

// CSVWriter serializes report rows
type CSVWriter struct {
	delimiter rune
	perm      os.FileMode
}

// NewCSVWriter creates a comma-delimited writer.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{delimiter: ',', perm: 0o644}
}

// Encode renders the header followed by rows, in order.
func (w *CSVWriter) Encode(rows []processor.ReportRow) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = w.delimiter

	if err := cw.Write(Header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Title, row.Level, row.CreationDate}); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write replaces path with the encoded report. The file is written to a
// temporary sibling and renamed, so path either holds the full report or is
// left as it was.
func (w *CSVWriter) Write(path string, rows []processor.ReportRow) error {
	data, err := w.Encode(rows)
	if err != nil {
		return errors.NewWriteFailedError(path, fmt.Errorf("encode report: %w", err))
	}
	if err := atomicwriter.WriteFile(path, data, w.perm); err != nil {
		return errors.NewWriteFailedError(path, err)
	}
	return nil
}
