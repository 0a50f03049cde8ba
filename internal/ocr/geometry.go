package ocr

import (
	"math"
	"unicode/utf8"
)

const (
	// lineTolerance is the y0 clustering tolerance used to group words into
	// lines: words whose tops differ by less than this belong to one line.
	lineTolerance = 5.0

	// aspectRatioLimit flags word boxes that are abnormally tall relative to
	// their per-character width, a known engine artifact on noisy scans.
	aspectRatioLimit = 2.5
)

// CorrectGeometry returns a copy of words with abnormally tall boxes pulled
// down toward the line baseline. For a word whose height divided by its
// average character width exceeds aspectRatioLimit, the top edge is recomputed
// from the deepest bottom edge on the same line; the bottom edge and x-range
// are never touched. The correction is deterministic for identical input.
func CorrectGeometry(words []Word) []Word {
	if len(words) == 0 {
		return nil
	}
	out := make([]Word, len(words))
	copy(out, words)

	start := 0
	for i := 1; i <= len(out); i++ {
		if i == len(out) || math.Abs(out[i].BBox.Y0-out[i-1].BBox.Y0) >= lineTolerance {
			correctLine(out[start:i])
			start = i
		}
	}
	return out
}

func correctLine(line []Word) {
	var baseline float64
	for _, w := range line {
		if w.BBox.Y1 > baseline {
			baseline = w.BBox.Y1
		}
	}

	for i := range line {
		box := &line[i].BBox
		chars := utf8.RuneCountInString(line[i].Text)
		if chars == 0 {
			continue
		}
		charWidth := box.Width() / float64(chars)
		if charWidth <= 0 {
			continue
		}
		if box.Height()/charWidth <= aspectRatioLimit {
			continue
		}
		top := baseline - 1.5*charWidth*0.8
		if top >= 0 && top < box.Y1 {
			box.Y0 = top
		}
	}
}
