package detector

import (
	"context"

	"github.com/raaihank/docsentinel/internal/ocr"
)

// PIIType classifies a detection. The set is closed; it drives base
// confidence weighting and labeling.
type PIIType string

const (
	TypeName        PIIType = "name"
	TypeEmail       PIIType = "email"
	TypePhone       PIIType = "phone"
	TypeSSN         PIIType = "ssn"
	TypeAddress     PIIType = "address"
	TypeDateOfBirth PIIType = "date_of_birth"
	TypeCreditCard  PIIType = "credit_card"
	TypeOther       PIIType = "other"
)

// Label returns the human-readable name for the type.
func (t PIIType) Label() string {
	switch t {
	case TypeName:
		return "Name"
	case TypeEmail:
		return "Email Address"
	case TypePhone:
		return "Phone Number"
	case TypeSSN:
		return "Social Security Number"
	case TypeAddress:
		return "Address"
	case TypeDateOfBirth:
		return "Date of Birth"
	case TypeCreditCard:
		return "Credit Card Number"
	default:
		return "Other"
	}
}

// Detection is one located PII occurrence. Words is the subset of OCR words
// overlapping the matched character range by more than half their own span;
// a detection that cannot be located in pixel space is never emitted. The ID
// is assigned at creation and stays stable through region derivation.
type Detection struct {
	ID         string
	Text       string
	Type       PIIType
	Confidence float64 // 0.0-1.0
	StartIndex int
	EndIndex   int
	Words      []ocr.Word
}

// Overlaps reports whether the detection's character range overlaps [start,end).
func (d Detection) Overlaps(start, end int) bool {
	return d.StartIndex < end && d.EndIndex > start
}

// NeuralRecognizer is an optional, higher-priority detection source. Pattern
// matching is fully functional without one.
type NeuralRecognizer interface {
	Detect(ctx context.Context, text string, words []ocr.Word) ([]Detection, error)
	Close() error
}
