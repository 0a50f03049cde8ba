package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	pipeerr "github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/regions"
)

func whiteSurface(w, h int) *image.RGBA {
	surface := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(surface, surface.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return surface
}

func TestApplyRedactions(t *testing.T) {
	t.Run("PaintsOpaqueBlack", func(t *testing.T) {
		surface := whiteSurface(100, 100)
		list := []regions.RedactionRegion{{ID: "r1", X: 10, Y: 10, Width: 30, Height: 20}}

		if err := ApplyRedactions(surface, list); err != nil {
			t.Fatalf("ApplyRedactions failed: %v", err)
		}

		if got := surface.RGBAAt(25, 20); got != (color.RGBA{A: 255}) {
			t.Errorf("Pixel inside region should be opaque black, got %v", got)
		}
		if got := surface.RGBAAt(60, 60); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
			t.Errorf("Pixel outside region should stay white, got %v", got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		list := []regions.RedactionRegion{
			{ID: "r1", X: 5.3, Y: 5.7, Width: 20.2, Height: 10.9},
			{ID: "r2", X: 40, Y: 40, Width: 25, Height: 25},
		}

		surface := whiteSurface(100, 100)
		if err := ApplyRedactions(surface, list); err != nil {
			t.Fatalf("First apply failed: %v", err)
		}
		once := make([]byte, len(surface.Pix))
		copy(once, surface.Pix)

		if err := ApplyRedactions(surface, list); err != nil {
			t.Fatalf("Second apply failed: %v", err)
		}
		if !bytes.Equal(once, surface.Pix) {
			t.Error("Applying the same region set twice must produce identical pixels")
		}
	})

	t.Run("FractionalEdgesExpandOutward", func(t *testing.T) {
		surface := whiteSurface(20, 20)
		list := []regions.RedactionRegion{{ID: "r1", X: 1.4, Y: 1.4, Width: 2.2, Height: 2.2}}

		if err := ApplyRedactions(surface, list); err != nil {
			t.Fatalf("ApplyRedactions failed: %v", err)
		}

		// Floor(1.4)=1, Ceil(3.6)=4: rows/cols 1..3 must be painted.
		if got := surface.RGBAAt(1, 1); got != (color.RGBA{A: 255}) {
			t.Errorf("Floor edge pixel should be painted, got %v", got)
		}
		if got := surface.RGBAAt(3, 3); got != (color.RGBA{A: 255}) {
			t.Errorf("Ceil edge pixel should be painted, got %v", got)
		}
		if got := surface.RGBAAt(0, 0); got.R != 255 {
			t.Errorf("Pixel before the floor edge should stay white, got %v", got)
		}
	})

	t.Run("RegionOutsideBoundsIgnored", func(t *testing.T) {
		surface := whiteSurface(20, 20)
		list := []regions.RedactionRegion{{ID: "r1", X: 500, Y: 500, Width: 10, Height: 10}}
		if err := ApplyRedactions(surface, list); err != nil {
			t.Fatalf("Out-of-bounds region should be skipped, got %v", err)
		}
	})

	t.Run("NilSurfaceIsCanvasError", func(t *testing.T) {
		err := ApplyRedactions(nil, nil)
		if pipeerr.CodeOf(err) != pipeerr.CodeCanvasError {
			t.Errorf("Expected CANVAS_ERROR, got %v", err)
		}
	})

	t.Run("EmptySurfaceIsCanvasError", func(t *testing.T) {
		err := ApplyRedactions(image.NewRGBA(image.Rect(0, 0, 0, 0)), nil)
		if pipeerr.CodeOf(err) != pipeerr.CodeCanvasError {
			t.Errorf("Expected CANVAS_ERROR, got %v", err)
		}
	})
}

func TestPreviewOverlay(t *testing.T) {
	t.Run("FillIsTranslucent", func(t *testing.T) {
		surface := whiteSurface(100, 100)
		list := []regions.RedactionRegion{{ID: "r1", X: 10, Y: 10, Width: 40, Height: 30}}

		if err := PreviewOverlay(surface, list, 96); err != nil {
			t.Fatalf("PreviewOverlay failed: %v", err)
		}

		inside := surface.RGBAAt(30, 25)
		if inside == (color.RGBA{A: 255}) {
			t.Error("Preview fill must not be opaque black")
		}
		if inside == (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
			t.Error("Preview fill must darken the underlying pixel")
		}
	})

	t.Run("NilSurfaceIsCanvasError", func(t *testing.T) {
		err := PreviewOverlay(nil, nil, 96)
		if pipeerr.CodeOf(err) != pipeerr.CodeCanvasError {
			t.Errorf("Expected CANVAS_ERROR, got %v", err)
		}
	})
}
