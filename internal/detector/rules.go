package detector

import "regexp"

// Rule is a single pattern-based PII matcher.
type Rule struct {
	Type           PIIType
	Pattern        *regexp.Regexp
	BaseConfidence float64
}

// defaultBaseConfidence is used for types without an explicit weighting.
const defaultBaseConfidence = 0.70

// defaultRules returns the built-in matchers. Slice order is the scan order
// and therefore the output order; it must stay fixed for determinism.
func defaultRules() []Rule {
	return []Rule{
		{
			Type:           TypeEmail,
			Pattern:        regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
			BaseConfidence: 0.95,
		},
		{
			Type:           TypePhone,
			Pattern:        regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
			BaseConfidence: 0.85,
		},
		{
			Type:           TypeSSN,
			Pattern:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			BaseConfidence: 0.98,
		},
		{
			Type:           TypeCreditCard,
			Pattern:        regexp.MustCompile(`\b(?:\d{4}[- ]?){3}\d{1,4}\b`),
			BaseConfidence: 0.90,
		},
		{
			Type:           TypeDateOfBirth,
			Pattern:        regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`),
			BaseConfidence: 0.75,
		},
	}
}
