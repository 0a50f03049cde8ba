// Package ocr extracts text with positional metadata from rasterized pages.
//
// The Tesseract-backed engine requires the "ocr" build tag and a system
// Tesseract installation:
//
//	go build -tags ocr
//
// Without the tag a stub engine is compiled in and initialization fails with
// OCR_INIT_FAILED, which downstream code treats as manual-only redaction mode.
package ocr

import (
	"context"
	"image"
)

// BBox is an axis-aligned rectangle in page-local pixel coordinates.
type BBox struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// Word is a single recognized token. Words are immutable once produced and
// ordered line-by-line, left-to-right as emitted by the engine.
type Word struct {
	Text       string
	BBox       BBox
	Confidence float64 // 0-100
}

// Result is the output of extracting one page.
type Result struct {
	Text       string
	Words      []Word
	Confidence float64 // mean word confidence, 0-100
}

// Progress reports extraction progress for UX feedback only; it must never be
// used for control flow.
type Progress func(percent float64, status string)

// Engine is the OCR provider contract: one rasterized page in, text plus
// word geometry out.
type Engine interface {
	Init(ctx context.Context, language, dataDir string) error
	Recognize(ctx context.Context, img image.Image) (Result, error)
	Close() error
}
