package ocr

import (
	"math"
	"testing"
)

func TestCorrectGeometry(t *testing.T) {
	t.Run("TallBoxPulledToBaseline", func(t *testing.T) {
		words := []Word{{
			Text: "I",
			BBox: BBox{X0: 10, Y0: 0, X1: 14, Y1: 40},
		}}

		got := CorrectGeometry(words)
		// charWidth 4, height 40, ratio 10: corrected top is
		// baseline(40) - 1.5*4*0.8 = 35.2.
		if math.Abs(got[0].BBox.Y0-35.2) > 1e-9 {
			t.Errorf("Expected corrected top 35.2, got %g", got[0].BBox.Y0)
		}
		if got[0].BBox.Y1 != 40 || got[0].BBox.X0 != 10 || got[0].BBox.X1 != 14 {
			t.Error("Bottom edge and x-range must never change")
		}
	})

	t.Run("NormalBoxUntouched", func(t *testing.T) {
		words := []Word{{
			Text: "hello",
			BBox: BBox{X0: 0, Y0: 100, X1: 50, Y1: 112},
		}}

		got := CorrectGeometry(words)
		if got[0].BBox != words[0].BBox {
			t.Errorf("Box within aspect limit must be untouched, got %+v", got[0].BBox)
		}
	})

	t.Run("BaselineComesFromWholeLine", func(t *testing.T) {
		words := []Word{
			{Text: "ab", BBox: BBox{X0: 0, Y0: 100, X1: 20, Y1: 112}},
			{Text: "x", BBox: BBox{X0: 30, Y0: 98, X1: 36, Y1: 160}},
		}

		got := CorrectGeometry(words)
		// The tall word's line baseline is 160 (its own bottom is the
		// deepest); corrected top is 160 - 1.5*6*0.8 = 152.8.
		if math.Abs(got[1].BBox.Y0-152.8) > 1e-9 {
			t.Errorf("Expected corrected top 152.8, got %g", got[1].BBox.Y0)
		}
		if got[0].BBox != words[0].BBox {
			t.Error("The normal word on the line must be untouched")
		}
	})

	t.Run("SeparateLinesDoNotShareBaselines", func(t *testing.T) {
		words := []Word{
			{Text: "header", BBox: BBox{X0: 0, Y0: 10, X1: 60, Y1: 22}},
			{Text: "I", BBox: BBox{X0: 0, Y0: 50, X1: 4, Y1: 90}},
		}

		got := CorrectGeometry(words)
		// The tall word sits on its own line: baseline 90, top 90-4.8.
		if math.Abs(got[1].BBox.Y0-85.2) > 1e-9 {
			t.Errorf("Expected corrected top 85.2, got %g", got[1].BBox.Y0)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		words := []Word{
			{Text: "ab", BBox: BBox{X0: 0, Y0: 100, X1: 20, Y1: 112}},
			{Text: "x", BBox: BBox{X0: 30, Y0: 98, X1: 36, Y1: 160}},
		}

		first := CorrectGeometry(words)
		second := CorrectGeometry(words)
		for i := range first {
			if first[i].BBox != second[i].BBox {
				t.Errorf("Word %d differs between runs", i)
			}
		}
	})

	t.Run("InputNotMutated", func(t *testing.T) {
		words := []Word{{Text: "I", BBox: BBox{X0: 10, Y0: 0, X1: 14, Y1: 40}}}
		CorrectGeometry(words)
		if words[0].BBox.Y0 != 0 {
			t.Error("CorrectGeometry must not mutate its input")
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		if got := CorrectGeometry(nil); got != nil {
			t.Errorf("Expected nil for empty input, got %v", got)
		}
	})

	t.Run("EmptyTextSkipped", func(t *testing.T) {
		words := []Word{{Text: "", BBox: BBox{X0: 0, Y0: 0, X1: 4, Y1: 100}}}
		got := CorrectGeometry(words)
		if got[0].BBox != words[0].BBox {
			t.Error("Word without text must be left alone")
		}
	})
}
