package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Error kinds for the result-screen OCR worker.
 *
 * Per-image kinds (IMAGE_UNREADABLE, RECOGNITION_FAILED, PAYLOAD_MALFORMED,
 * PROCESSING_TIMEOUT) are recovered by the batch orchestrator. WRITE_FAILED
 * is the only kind that fails a run.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Per-image errors
	ErrorImageUnreadable   ErrorCode = "IMAGE_UNREADABLE"
	ErrorRecognitionFailed ErrorCode = "RECOGNITION_FAILED"
	ErrorPayloadMalformed  ErrorCode = "PAYLOAD_MALFORMED"
	ErrorProcessingTimeout ErrorCode = "PROCESSING_TIMEOUT"

	// Never fatal; the raw timestamp is kept
	ErrorDateUnparsable ErrorCode = "DATE_UNPARSABLE"

	// Output errors
	ErrorWriteFailed   ErrorCode = "WRITE_FAILED"
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
)

// ProcessingError represents a structured processing error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	Path      string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of the first ProcessingError in err's chain, or ""
// when there is none.
func CodeOf(err error) ErrorCode {
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// Factory functions for common errors

func NewImageUnreadableError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorImageUnreadable,
		Message:   fmt.Sprintf("Could not load image from path: %s", path),
		Path:      path,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewRecognitionFailedError(path string, engine string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorRecognitionFailed,
		Message:   fmt.Sprintf("Text recognition failed (engine: %s)", engine),
		Path:      path,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"engine": engine,
		},
		Cause: cause,
	}
}

func NewPayloadMalformedError(path string, reason string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorPayloadMalformed,
		Message:   fmt.Sprintf("OCR payload could not be interpreted: %s", reason),
		Path:      path,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewProcessingTimeoutError(path string, duration time.Duration, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorProcessingTimeout,
		Message:   fmt.Sprintf("Processing timed out after %v", duration),
		Path:      path,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"timeout_duration": duration.String(),
		},
		Cause: cause,
	}
}

func NewDateUnparsableError(raw string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorDateUnparsable,
		Message:   fmt.Sprintf("Unparsable creation date: %q", raw),
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewWriteFailedError(path string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorWriteFailed,
		Message:   fmt.Sprintf("Failed to write report to %s", path),
		Path:      path,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewStorageFailedError(runID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorStorageFailed,
		Message:   "Failed to store report rows",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"run_id": runID,
		},
		Cause: cause,
	}
}

// ToMap converts error to map for status storage
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.Path != "" {
		result["path"] = e.Path
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
