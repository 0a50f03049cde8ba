// Package render paints redaction regions onto page surfaces. The opaque
// fill is applied at original document pixel offsets; zoom and pan belong to
// the display-only preview path.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	pipeerr "github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/regions"
)

// ApplyRedactions paints a pure-black opaque rectangle over every region on
// the surface. Region edges are expanded outward to whole pixels so the
// painted area never undershoots the stored rectangle. Applying the same
// region set twice produces the same pixels as applying it once.
func ApplyRedactions(surface *image.RGBA, list []regions.RedactionRegion) error {
	if surface == nil || surface.Bounds().Empty() {
		return pipeerr.NewCanvasError("drawing surface unavailable")
	}

	black := image.NewUniform(color.Black)
	for _, region := range list {
		rect := pixelRect(region).Intersect(surface.Bounds())
		if rect.Empty() {
			continue
		}
		draw.Draw(surface, rect, black, image.Point{}, draw.Src)
	}
	return nil
}

// PreviewOverlay is the display-only rendering path: semi-transparent fills
// with a solid border stroke so the user can see what lies underneath before
// flattening. Never used at export time.
func PreviewOverlay(surface *image.RGBA, list []regions.RedactionRegion, alpha uint8) error {
	if surface == nil || surface.Bounds().Empty() {
		return pipeerr.NewCanvasError("drawing surface unavailable")
	}

	fill := image.NewUniform(color.RGBA{A: alpha})
	border := image.NewUniform(color.RGBA{A: 255})
	for _, region := range list {
		rect := pixelRect(region).Intersect(surface.Bounds())
		if rect.Empty() {
			continue
		}
		draw.Draw(surface, rect, fill, image.Point{}, draw.Over)
		strokeRect(surface, rect, border)
	}
	return nil
}

// pixelRect expands a region's float geometry outward to whole pixels.
func pixelRect(region regions.RedactionRegion) image.Rectangle {
	return image.Rect(
		int(math.Floor(region.X)),
		int(math.Floor(region.Y)),
		int(math.Ceil(region.X+region.Width)),
		int(math.Ceil(region.Y+region.Height)),
	)
}

func strokeRect(surface *image.RGBA, rect image.Rectangle, src image.Image) {
	top := image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1)
	bottom := image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y)
	left := image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y)
	right := image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y)
	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(surface, edge, src, image.Point{}, draw.Src)
	}
}
