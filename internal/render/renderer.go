package render

import (
	"context"
	"errors"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/raaihank/docsentinel/internal/document"
	"github.com/raaihank/docsentinel/internal/logger"
)

// PageRenderer serializes page rasterization and cancels the in-flight render
// when a newer one begins, so switching pages never tears. A canceled render
// completes silently with a nil surface.
type PageRenderer struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	logger *logger.Logger
}

// NewPageRenderer creates a renderer.
func NewPageRenderer(log *logger.Logger) *PageRenderer {
	return &PageRenderer{logger: log.WithComponent("render")}
}

// RenderPage rasterizes one page, superseding any render still in flight.
// The returned surface is nil (with nil error) when this render was itself
// superseded before completing.
func (r *PageRenderer) RenderPage(ctx context.Context, src document.PageSource, page int, scale float64) (*image.RGBA, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	surface, err := src.RenderPage(ctx, page, scale)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.logger.Debug("render superseded", zap.Int("page", page))
			return nil, nil
		}
		return nil, err
	}
	return surface, nil
}
