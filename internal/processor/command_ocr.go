/**
 * Command OCR - out-of-process adapter
 *
 * Runs an external helper once per image and decodes the JSON it prints:
 *
 *	{"recognize_text": [{"text": "...", "boundingBox": {"x":0,"y":0,"width":0,"height":0}}],
 *	 "creation_date": "2024-03-01 10:00"}
 *
 * A crash of the helper only fails the current image.
 */

package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/adverant/nexus/resultocr-worker/internal/errors"
)

// CommandOCR invokes an external OCR helper
type CommandOCR struct {
	command string
	args    []string
}

// CommandConfig holds the helper invocation. The image path is appended as
// the last argument.
type CommandConfig struct {
	Command string
	Args    []string
}

// NewCommandOCR creates an adapter around an external helper
func NewCommandOCR(cfg *CommandConfig) (*CommandOCR, error) {
	if cfg == nil || cfg.Command == "" {
		return nil, fmt.Errorf("OCR command is required")
	}
	return &CommandOCR{command: cfg.Command, args: cfg.Args}, nil
}

func (c *CommandOCR) Name() string { return "command:" + c.command }

// Recognize runs the helper for path and decodes its output
func (c *CommandOCR) Recognize(ctx context.Context, path string) (*ImageRecord, error) {
	args := append(append([]string{}, c.args...), path)
	cmd := exec.CommandContext(ctx, c.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, errors.NewRecognitionFailedError(path, c.Name(), err)
	}

	return DecodePayload(path, stdout.Bytes())
}

type commandPayload struct {
	Error         string          `json:"error"`
	RecognizeText json.RawMessage `json:"recognize_text"`
	CreationDate  *string         `json:"creation_date"`
}

type payloadObservation struct {
	Text        *string      `json:"text"`
	BoundingBox *BoundingBox `json:"boundingBox"`
}

// DecodePayload interprets helper output for path. Labels present in the
// payload are ignored.
func DecodePayload(path string, data []byte) (*ImageRecord, error) {
	var payload commandPayload
	if err := json.Unmarshal(bytes.TrimSpace(data), &payload); err != nil {
		return nil, errors.NewPayloadMalformedError(path, "invalid JSON", err)
	}

	if payload.Error != "" {
		return nil, errors.NewRecognitionFailedError(path, "command", fmt.Errorf("%s", payload.Error))
	}

	raw := bytes.TrimSpace(payload.RecognizeText)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.NewPayloadMalformedError(path, "missing recognize_text", nil)
	}
	if raw[0] == '{' {
		var engineErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &engineErr); err == nil && engineErr.Error != "" {
			return nil, errors.NewRecognitionFailedError(path, "command", fmt.Errorf("%s", engineErr.Error))
		}
	}

	var items []payloadObservation
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.NewPayloadMalformedError(path, "recognize_text is not a list of observations", err)
	}

	observations := make([]TextObservation, 0, len(items))
	for i, item := range items {
		if item.Text == nil || item.BoundingBox == nil {
			return nil, errors.NewPayloadMalformedError(path, fmt.Sprintf("observation %d lacks text or boundingBox", i), nil)
		}
		if !item.BoundingBox.InUnitSquare() {
			return nil, errors.NewPayloadMalformedError(path, fmt.Sprintf("observation %d has a box outside the unit square", i), nil)
		}
		observations = append(observations, TextObservation{
			Text:        *item.Text,
			BoundingBox: *item.BoundingBox,
			Label:       LabelUnlabeled,
		})
	}

	record := &ImageRecord{Path: path, Observations: observations}
	if payload.CreationDate != nil {
		record.CreationTimestamp = *payload.CreationDate
	}
	return record, nil
}
