package regions

import "github.com/raaihank/docsentinel/internal/detector"

// RedactionRegion is one redaction rectangle in page-local pixel coordinates.
// Geometry is immutable after creation; the only correction mechanism is
// delete-and-redraw. PIIType and Confidence are set iff the region was
// derived from a detection (IsManual false).
type RedactionRegion struct {
	ID          string
	DetectionID string // empty for manual regions
	X           float64
	Y           float64
	Width       float64
	Height      float64
	PIIType     detector.PIIType
	Confidence  float64
	IsManual    bool
}

const (
	// minManualSize rejects accidental specks when drawing by hand.
	minManualSize = 5.0

	// lineTolerance clusters a detection's words into visual lines: a word
	// starts a new line when its top differs from the previous word's top by
	// this much or more.
	lineTolerance = 5.0
)
