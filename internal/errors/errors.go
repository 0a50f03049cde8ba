// Package errors defines the typed error taxonomy shared by every pipeline
// stage. No raw engine or model error crosses a package boundary unwrapped:
// each stage converts failures to a *Error carrying a stable code, the stage
// that failed, and the original cause.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class and its recovery policy.
type Code string

const (
	// Input validation failures. Recoverable: the caller selects another file.
	CodeInvalidFileFormat Code = "INVALID_FILE_FORMAT"
	CodeFileTooLarge      Code = "FILE_TOO_LARGE"

	// Extraction failures. Recoverable: the session degrades to manual-only
	// redaction for the rest of the document.
	CodeOCRInitFailed Code = "OCR_INIT_FAILED"
	CodeOCRFailed     Code = "OCR_FAILED"
	CodeOCRTimeout    Code = "OCR_TIMEOUT"

	// WorkerTerminated is reported to requests still pending when the
	// extraction worker is shut down.
	CodeWorkerTerminated Code = "WORKER_TERMINATED"

	// Detection failed after a successful extraction. Recoverable: retry or
	// proceed with manual regions.
	CodePIIDetectionFailed Code = "PII_DETECTION_FAILED"

	// The optional neural model could not be loaded. Degrades silently to
	// pattern-only detection; logged but never user-facing.
	CodeModelLoadFailed Code = "MODEL_LOAD_FAILED"

	// The compositing surface is unusable. Blocks both preview and export.
	CodeCanvasError Code = "CANVAS_ERROR"

	// Serialization of the redacted document failed. The session falls back
	// to a per-page raster export.
	CodeExportFailed Code = "EXPORT_FAILED"
)

// Error is a structured pipeline error.
type Error struct {
	Code    Code
	Stage   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", e.Code, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a pipeline error with an explicit code.
func New(code Code, stage, message string, cause error) *Error {
	return &Error{Code: code, Stage: stage, Message: message, Cause: cause}
}

// CodeOf extracts the pipeline error code from err, unwrapping as needed.
// It returns an empty code when err is not a pipeline error.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

func NewInvalidFileFormat(mimeType string) *Error {
	return New(CodeInvalidFileFormat, "load", fmt.Sprintf("unsupported file format: %s", mimeType), nil)
}

func NewFileTooLarge(size, limit int64) *Error {
	return New(CodeFileTooLarge, "load", fmt.Sprintf("file size %d exceeds limit %d", size, limit), nil)
}

func NewOCRInitFailed(cause error) *Error {
	return New(CodeOCRInitFailed, "ocr", "engine initialization failed", cause)
}

func NewOCRFailed(cause error) *Error {
	return New(CodeOCRFailed, "ocr", "text extraction failed", cause)
}

func NewOCRTimeout(requestID string) *Error {
	return New(CodeOCRTimeout, "ocr", fmt.Sprintf("no worker response for request %s", requestID), nil)
}

func NewWorkerTerminated(requestID string) *Error {
	return New(CodeWorkerTerminated, "ocr", fmt.Sprintf("worker terminated with request %s pending", requestID), nil)
}

func NewPIIDetectionFailed(cause error) *Error {
	return New(CodePIIDetectionFailed, "detect", "entity detection failed", cause)
}

func NewModelLoadFailed(cause error) *Error {
	return New(CodeModelLoadFailed, "detect", "neural model unavailable", cause)
}

func NewCanvasError(message string) *Error {
	return New(CodeCanvasError, "render", message, nil)
}

func NewExportFailed(cause error) *Error {
	return New(CodeExportFailed, "export", "document serialization failed", cause)
}
