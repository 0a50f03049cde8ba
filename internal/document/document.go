// Package document is the boundary to the document loader and page
// rasterizer collaborators: it validates raw input bytes and exposes pages as
// RGBA rasters the pipeline treats as opaque surfaces.
package document

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	xdraw "golang.org/x/image/draw"

	"github.com/raaihank/docsentinel/internal/config"
	pipeerr "github.com/raaihank/docsentinel/internal/errors"
)

// PageSource rasterizes pages on demand. Page numbers are 1-indexed. A
// canceled context aborts the render with ctx.Err().
type PageSource interface {
	PageCount() int
	RenderPage(ctx context.Context, page int, scale float64) (*image.RGBA, error)
}

// Document is a validated, in-memory input document.
type Document struct {
	mime   string
	size   int64
	source PageSource
}

// Option mutates document loading.
type Option func(*Document)

// WithPageSource supplies an external rasterizer, required for paginated
// formats the package cannot rasterize itself (application/pdf).
func WithPageSource(source PageSource) Option {
	return func(d *Document) { d.source = source }
}

// Load validates data against the configured limits and wires up a page
// source. Raster images (PNG, JPEG) become single-page documents; PDF input
// is accepted only when an external PageSource is supplied.
func Load(data []byte, limits config.LimitsConfig, opts ...Option) (*Document, error) {
	if int64(len(data)) > limits.MaxFileSize {
		return nil, pipeerr.NewFileTooLarge(int64(len(data)), limits.MaxFileSize)
	}

	mime := http.DetectContentType(data)
	accepted := false
	for _, m := range limits.AcceptedMIMEs {
		if m == mime {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil, pipeerr.NewInvalidFileFormat(mime)
	}

	doc := &Document{mime: mime, size: int64(len(data))}
	for _, opt := range opts {
		opt(doc)
	}

	switch mime {
	case "image/png", "image/jpeg":
		var (
			img image.Image
			err error
		)
		if mime == "image/png" {
			img, err = png.Decode(bytes.NewReader(data))
		} else {
			img, err = jpeg.Decode(bytes.NewReader(data))
		}
		if err != nil {
			return nil, pipeerr.New(pipeerr.CodeInvalidFileFormat, "load", "image decode failed", err)
		}
		doc.source = &imageSource{img: img}
	case "application/pdf":
		if doc.source == nil {
			return nil, pipeerr.New(pipeerr.CodeInvalidFileFormat, "load", "pdf input requires an external page rasterizer", nil)
		}
	}

	return doc, nil
}

// MIME returns the detected content type.
func (d *Document) MIME() string { return d.mime }

// Size returns the input size in bytes.
func (d *Document) Size() int64 { return d.size }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.source.PageCount() }

// RenderPage rasterizes one page at the given scale.
func (d *Document) RenderPage(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	return d.source.RenderPage(ctx, page, scale)
}

// imageSource serves a decoded raster image as a one-page document.
type imageSource struct {
	img image.Image
}

func (s *imageSource) PageCount() int { return 1 }

func (s *imageSource) RenderPage(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	if page != 1 {
		return nil, pipeerr.New(pipeerr.CodeInvalidFileFormat, "render", "page out of range", nil)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	bounds := s.img.Bounds()
	if scale <= 0 {
		scale = 1
	}
	width := int(float64(bounds.Dx()) * scale)
	height := int(float64(bounds.Dy()) * scale)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), s.img, bounds, xdraw.Src, nil)
	return dst, nil
}
