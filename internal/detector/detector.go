// Package detector scans extracted page text for PII and maps every match
// back onto the OCR words that carry its pixel geometry.
package detector

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raaihank/docsentinel/internal/config"
	"github.com/raaihank/docsentinel/internal/logger"
	"github.com/raaihank/docsentinel/internal/ocr"
)

// Detector finds PII occurrences in extracted text.
type Detector struct {
	rules     []Rule
	enabled   map[PIIType]bool
	threshold float64
	neural    NeuralRecognizer
	logger    *logger.Logger
}

// New creates a detector from configuration. A missing or unloadable neural
// model degrades silently to pattern-only detection.
func New(cfg config.DetectorConfig, log *logger.Logger) (*Detector, error) {
	d := &Detector{
		rules:     defaultRules(),
		enabled:   make(map[PIIType]bool),
		threshold: cfg.ConfidenceThreshold,
		logger:    log.WithComponent("detector"),
	}

	if err := d.configureTypes(cfg.EnabledTypes); err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	if cfg.NeuralModelPath != "" {
		neural, err := newNeuralRecognizer(cfg.NeuralModelPath, d.logger)
		if err != nil {
			// MODEL_LOAD_FAILED is not user-facing; pattern matching stays
			// fully functional on its own.
			d.logger.Warn("neural recognizer unavailable, using patterns only", zap.Error(err))
		} else {
			d.neural = neural
		}
	}

	d.logger.Info("detector initialized",
		zap.Int("total_rules", len(d.rules)),
		zap.Int("enabled_rules", d.countEnabledRules()),
		zap.Bool("neural", d.neural != nil),
	)
	return d, nil
}

// configureTypes enables/disables rules based on configuration
func (d *Detector) configureTypes(types []string) error {
	for _, rule := range d.rules {
		d.enabled[rule.Type] = false
	}

	for _, name := range types {
		if name == "all" {
			for _, rule := range d.rules {
				d.enabled[rule.Type] = true
			}
			continue
		}

		found := false
		for _, rule := range d.rules {
			if string(rule.Type) == name {
				d.enabled[rule.Type] = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown detector type: %s", name)
		}
	}

	return nil
}

func (d *Detector) countEnabledRules() int {
	count := 0
	for _, on := range d.enabled {
		if on {
			count++
		}
	}
	return count
}

// DetectPII scans text for PII and returns detections in rule-table order,
// then match position. Empty or whitespace-only text yields an empty list.
// Every returned detection carries at least one OCR word; a match that cannot
// be located in pixel space is discarded.
func (d *Detector) DetectPII(ctx context.Context, text string, words []ocr.Word) ([]Detection, error) {
	detections := make([]Detection, 0)
	if strings.TrimSpace(text) == "" {
		return detections, nil
	}

	// The neural recognizer, when present, runs first and wins range
	// conflicts against pattern matches.
	var priority []Detection
	if d.neural != nil {
		neural, err := d.neural.Detect(ctx, text, words)
		if err != nil {
			d.logger.Warn("neural detection failed, continuing with patterns", zap.Error(err))
		}
		for _, det := range neural {
			if len(det.Words) == 0 {
				det.Words = mapWords(text, words, det.StartIndex, det.EndIndex)
			}
			if len(det.Words) == 0 {
				continue
			}
			if det.ID == "" {
				det.ID = uuid.NewString()
			}
			priority = append(priority, det)
		}
		detections = append(detections, priority...)
	}

	for _, rule := range d.rules {
		if !d.enabled[rule.Type] {
			continue
		}
		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if overlapsAny(priority, start, end) {
				continue
			}
			matched := text[start:end]
			matchWords := mapWords(text, words, start, end)
			if len(matchWords) == 0 {
				continue
			}
			confidence := scoreMatch(rule, matched, matchWords)
			if confidence < d.threshold {
				d.logger.Debug("match below confidence threshold",
					zap.String("type", string(rule.Type)),
					zap.Float64("confidence", confidence),
				)
				continue
			}
			detections = append(detections, Detection{
				ID:         uuid.NewString(),
				Text:       matched,
				Type:       rule.Type,
				Confidence: confidence,
				StartIndex: start,
				EndIndex:   end,
				Words:      matchWords,
			})
		}
	}

	d.logger.Debug("detection complete", zap.Int("detections", len(detections)))
	return detections, nil
}

// Close releases the neural recognizer, if any.
func (d *Detector) Close() error {
	if d.neural != nil {
		return d.neural.Close()
	}
	return nil
}

// mapWords returns the subset of words whose occurrence in text overlaps
// [start,end) by more than 50% of the word's own character span. Positions
// are byte offsets, but the overlap ratio is measured in runes. Word
// positions are found by scanning words in order with a cursor into text, so
// repeated tokens resolve to distinct occurrences.
func mapWords(text string, words []ocr.Word, start, end int) []ocr.Word {
	var out []ocr.Word
	cursor := 0
	for _, w := range words {
		if w.Text == "" {
			continue
		}
		idx := strings.Index(text[cursor:], w.Text)
		if idx < 0 {
			continue
		}
		wordStart := cursor + idx
		wordEnd := wordStart + len(w.Text)
		cursor = wordEnd
		if wordStart >= end {
			break
		}
		overlapStart := max(start, wordStart)
		overlapEnd := min(end, wordEnd)
		if overlapEnd <= overlapStart {
			continue
		}
		overlap := utf8.RuneCountInString(text[overlapStart:overlapEnd])
		span := utf8.RuneCountInString(w.Text)
		if float64(overlap) > float64(span)*0.5 {
			out = append(out, w)
		}
	}
	return out
}

// scoreMatch blends the rule's base confidence 70/30 with the mean OCR word
// confidence. A credit-card match failing the Luhn check is halved, not
// rejected; callers filter by threshold.
func scoreMatch(rule Rule, matched string, words []ocr.Word) float64 {
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	mean := sum / float64(len(words))

	confidence := rule.BaseConfidence*0.7 + (mean/100.0)*0.3
	if rule.Type == TypeCreditCard && !IsValidCreditCard(matched) {
		confidence *= 0.5
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

func overlapsAny(priority []Detection, start, end int) bool {
	for _, det := range priority {
		if det.Overlaps(start, end) {
			return true
		}
	}
	return false
}
