// Package session wires the pipeline together for one document at a time:
// it owns the extraction worker, the entity detector, the region store and
// the page cache, and tears them down explicitly when the session ends.
package session

import (
	"bytes"
	"context"
	"image"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raaihank/docsentinel/internal/config"
	"github.com/raaihank/docsentinel/internal/detector"
	"github.com/raaihank/docsentinel/internal/document"
	pipeerr "github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/events"
	"github.com/raaihank/docsentinel/internal/export"
	"github.com/raaihank/docsentinel/internal/logger"
	"github.com/raaihank/docsentinel/internal/ocr"
	"github.com/raaihank/docsentinel/internal/regions"
	"github.com/raaihank/docsentinel/internal/render"
)

// Session is the single-document pipeline context.
type Session struct {
	cfg      *config.Config
	logger   *logger.Logger
	worker   *ocr.Worker
	extract  *ocr.Extractor
	detector *detector.Detector
	store    *regions.Store
	renderer *render.PageRenderer
	cache    *pageCache
	hub      *events.Hub
	limiter  *rate.Limiter

	mu         sync.Mutex
	doc        *document.Document
	manualOnly bool
	closed     bool
}

// Option customizes session construction.
type Option func(*options)

type options struct {
	engine ocr.Engine
	hub    *events.Hub
}

// WithEngine overrides the OCR engine. Used by tests.
func WithEngine(engine ocr.Engine) Option {
	return func(o *options) { o.engine = engine }
}

// WithHub attaches the dashboard event hub.
func WithHub(hub *events.Hub) Option {
	return func(o *options) { o.hub = hub }
}

// New constructs a session from configuration.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*Session, error) {
	o := &options{engine: ocr.NewEngine()}
	for _, opt := range opts {
		opt(o)
	}

	det, err := detector.New(cfg.Detector, log)
	if err != nil {
		return nil, err
	}

	extractor := ocr.NewExtractor(o.engine, cfg.OCR, log)
	perSecond := cfg.Events.ProgressPerSecond
	if perSecond <= 0 {
		perSecond = 20
	}

	return &Session{
		cfg:      cfg,
		logger:   log.WithComponent("session"),
		worker:   ocr.NewWorker(extractor, cfg.OCR, log),
		extract:  extractor,
		detector: det,
		store:    regions.NewStore(log),
		renderer: render.NewPageRenderer(log),
		cache:    newPageCache(cfg.Cache.MaxPages),
		hub:      o.hub,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
	}, nil
}

// LoadDocument validates and installs a new document, destroying all regions
// and cached surfaces from the previous one.
func (s *Session) LoadDocument(data []byte, opts ...document.Option) error {
	doc, err := document.Load(data, s.cfg.Limits, opts...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = doc
	s.manualOnly = false
	s.mu.Unlock()

	s.store.ClearAll()
	s.cache.clear()
	s.logger.Info("document loaded",
		zap.String("mime", doc.MIME()),
		zap.Int64("size", doc.Size()),
		zap.Int("pages", doc.PageCount()),
	)
	return nil
}

// Document returns the loaded document, or nil.
func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Store exposes region CRUD for the loaded document.
func (s *Session) Store() *regions.Store {
	return s.store
}

// ManualOnly reports whether extraction has failed for this session and only
// manual redaction remains available.
func (s *Session) ManualOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manualOnly
}

// DetectPage extracts text from one page and scans it for PII. Extractions
// are serialized: at most one is in flight per session. Extraction failures
// flip the session into manual-only mode and are returned typed
// (OCR_INIT_FAILED, OCR_FAILED, OCR_TIMEOUT); detection failures surface as
// PII_DETECTION_FAILED.
func (s *Session) DetectPage(ctx context.Context, page int, progress ocr.Progress) ([]detector.Detection, error) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return nil, pipeerr.New(pipeerr.CodeInvalidFileFormat, "detect", "no document loaded", nil)
	}

	surface, err := s.renderPage(ctx, doc, page)
	if err != nil {
		return nil, err
	}

	result, err := s.worker.Extract(ctx, surface, s.wrapProgress(page, progress))
	if err != nil {
		switch pipeerr.CodeOf(err) {
		case pipeerr.CodeOCRInitFailed, pipeerr.CodeOCRFailed, pipeerr.CodeOCRTimeout:
			s.mu.Lock()
			s.manualOnly = true
			s.mu.Unlock()
			if s.hub != nil {
				s.hub.System("extraction unavailable, manual redaction only")
			}
		}
		return nil, err
	}

	detections, err := s.detector.DetectPII(ctx, result.Text, result.Words)
	if err != nil {
		return nil, pipeerr.NewPIIDetectionFailed(err)
	}

	if s.hub != nil {
		byType := make(map[string]int)
		for _, det := range detections {
			byType[string(det.Type)]++
		}
		s.hub.Detections(page, byType)
	}

	s.logger.Info("page scanned",
		zap.Int("page", page),
		zap.Int("words", len(result.Words)),
		zap.Int("detections", len(detections)),
	)
	return detections, nil
}

// wrapProgress throttles progress fan-out; terminal updates always pass.
func (s *Session) wrapProgress(page int, progress ocr.Progress) ocr.Progress {
	return func(percent float64, status string) {
		if percent < 100 && !s.limiter.Allow() {
			return
		}
		if progress != nil {
			progress(percent, status)
		}
		if s.hub != nil {
			s.hub.Progress(page, percent, status)
		}
	}
}

// renderPage serves the page surface from the bounded cache, re-rendering
// from source on a miss.
func (s *Session) renderPage(ctx context.Context, doc *document.Document, page int) (*image.RGBA, error) {
	if surface, ok := s.cache.get(page); ok {
		return surface, nil
	}
	surface, err := doc.RenderPage(ctx, page, 1.0)
	if err != nil {
		return nil, err
	}
	s.cache.put(page, surface)
	return surface, nil
}

// PreviewPage renders a display surface with semi-transparent overlays for
// the page's regions. A preview superseded by a newer one returns nil
// without error.
func (s *Session) PreviewPage(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return nil, pipeerr.New(pipeerr.CodeInvalidFileFormat, "render", "no document loaded", nil)
	}

	surface, err := s.renderer.RenderPage(ctx, doc, page, scale)
	if err != nil || surface == nil {
		return nil, err
	}

	list := s.store.RegionsForPage(page)
	scaled := make([]regions.RedactionRegion, len(list))
	for i, region := range list {
		region.X *= scale
		region.Y *= scale
		region.Width *= scale
		region.Height *= scale
		scaled[i] = region
	}
	if err := render.PreviewOverlay(surface, scaled, s.cfg.Render.PreviewAlpha); err != nil {
		return nil, err
	}
	return surface, nil
}

// RedactedPage renders one page and flattens its active regions into the
// pixels. The cached render is never mutated; compositing happens on a copy.
func (s *Session) RedactedPage(ctx context.Context, page int) (*image.RGBA, error) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return nil, pipeerr.New(pipeerr.CodeInvalidFileFormat, "render", "no document loaded", nil)
	}

	surface, err := s.renderPage(ctx, doc, page)
	if err != nil {
		return nil, err
	}

	flattened := cloneRGBA(surface)
	if err := render.ApplyRedactions(flattened, s.store.RegionsForPage(page)); err != nil {
		return nil, err
	}
	return flattened, nil
}

// Export flattens every page and serializes the result to w. If primary
// serialization fails, a degraded single-page PNG of the first redacted page
// is written instead; a document with no pages has nothing to fall back to
// and fails with EXPORT_FAILED.
func (s *Session) Export(ctx context.Context, w io.Writer, format export.Format) error {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return pipeerr.NewExportFailed(nil)
	}

	pages := make([]*image.RGBA, 0, doc.PageCount())
	for page := 1; page <= doc.PageCount(); page++ {
		flattened, err := s.RedactedPage(ctx, page)
		if err != nil {
			return err
		}
		pages = append(pages, flattened)
	}

	var buf bytes.Buffer
	if err := export.Export(&buf, pages, format, s.cfg.Export.JPEGQuality); err != nil {
		if len(pages) == 0 {
			return err
		}
		s.logger.Warn("export failed, attempting fallback", zap.Error(err))
		return export.ExportFallback(w, pages[0])
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// CacheStats reports page cache effectiveness.
func (s *Session) CacheStats() CacheStats {
	return s.cache.stats()
}

// Close tears the session down: the worker rejects outstanding extractions,
// the detector releases its model, and all regions and cached surfaces are
// destroyed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.worker.Terminate()
	err := s.extract.Close()
	if derr := s.detector.Close(); err == nil {
		err = derr
	}
	s.store.ClearAll()
	s.cache.clear()
	s.logger.Info("session closed")
	return err
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
