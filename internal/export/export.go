// Package export serializes already-composited page surfaces into a
// downloadable artifact. Only flattened pixels cross this boundary: no text,
// regions or detection metadata ever reach the output, which is the privacy
// guarantee of the whole pipeline.
package export

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	pipeerr "github.com/raaihank/docsentinel/internal/errors"
)

// Format selects the output container.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
)

// ParseFormat validates a format selector.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatPNG, FormatJPEG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format: %s", s)
	}
}

// Export writes the ordered, already-redacted page surfaces to w. Image
// formats carry a single page; PDF carries any number. Failures surface as
// EXPORT_FAILED.
func Export(w io.Writer, pages []*image.RGBA, format Format, jpegQuality int) error {
	if len(pages) == 0 {
		return pipeerr.NewExportFailed(fmt.Errorf("no pages to export"))
	}
	for i, page := range pages {
		if page == nil || page.Bounds().Empty() {
			return pipeerr.NewExportFailed(fmt.Errorf("page %d has no surface", i+1))
		}
	}

	switch format {
	case FormatPNG:
		if len(pages) != 1 {
			return pipeerr.NewExportFailed(fmt.Errorf("png export supports a single page, got %d", len(pages)))
		}
		if err := png.Encode(w, pages[0]); err != nil {
			return pipeerr.NewExportFailed(err)
		}
		return nil
	case FormatJPEG:
		if len(pages) != 1 {
			return pipeerr.NewExportFailed(fmt.Errorf("jpg export supports a single page, got %d", len(pages)))
		}
		if err := jpeg.Encode(w, pages[0], &jpeg.Options{Quality: jpegQuality}); err != nil {
			return pipeerr.NewExportFailed(err)
		}
		return nil
	case FormatPDF:
		if err := writePDF(w, pages, jpegQuality); err != nil {
			return pipeerr.NewExportFailed(err)
		}
		return nil
	default:
		return pipeerr.NewExportFailed(fmt.Errorf("unknown export format: %s", format))
	}
}

// ExportFallback writes a degraded but still-redacted artifact: a PNG of a
// single composited surface. Used when primary serialization fails.
func ExportFallback(w io.Writer, page *image.RGBA) error {
	if page == nil || page.Bounds().Empty() {
		return pipeerr.NewExportFailed(fmt.Errorf("no surface for fallback export"))
	}
	if err := png.Encode(w, page); err != nil {
		return pipeerr.NewExportFailed(err)
	}
	return nil
}
