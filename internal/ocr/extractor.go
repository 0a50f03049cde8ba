package ocr

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/raaihank/docsentinel/internal/config"
	pipeerr "github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/logger"
)

// Extractor wraps an Engine with lazy, memoized initialization and geometry
// correction. Initialization runs once no matter how many callers race into
// it; later callers wait on the same in-flight attempt.
type Extractor struct {
	engine   Engine
	language string
	dataDir  string
	logger   *logger.Logger

	mu          sync.Mutex
	initStarted bool
	initDone    chan struct{}
	initErr     error
}

// NewExtractor creates an extractor around the given engine.
func NewExtractor(engine Engine, cfg config.OCRConfig, log *logger.Logger) *Extractor {
	return &Extractor{
		engine:   engine,
		language: cfg.Language,
		dataDir:  cfg.DataDir,
		logger:   log.WithComponent("ocr"),
	}
}

// Initialize loads the engine's language model. It is idempotent: the first
// caller starts the load, concurrent callers block on the same attempt, and
// every call after completion returns the memoized outcome.
func (e *Extractor) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if !e.initStarted {
		e.initStarted = true
		e.initDone = make(chan struct{})
		go e.runInit()
	}
	done := e.initDone
	e.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initErr
}

func (e *Extractor) runInit() {
	err := e.engine.Init(context.Background(), e.language, e.dataDir)

	e.mu.Lock()
	if err != nil {
		e.initErr = pipeerr.NewOCRInitFailed(err)
	}
	done := e.initDone
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("engine initialization failed", zap.Error(err))
	} else {
		e.logger.Info("engine ready", zap.String("language", e.language))
	}
	close(done)
}

// ExtractText runs OCR against a rasterized page. If the extractor has not
// been initialized yet, initialization is triggered transparently first.
// Failures surface as OCR_INIT_FAILED or OCR_FAILED.
func (e *Extractor) ExtractText(ctx context.Context, img image.Image, progress Progress) (Result, error) {
	report := func(percent float64, status string) {
		if progress != nil {
			progress(percent, status)
		}
	}

	report(0, "initializing")
	if err := e.Initialize(ctx); err != nil {
		return Result{}, err
	}

	report(10, "recognizing")
	res, err := e.engine.Recognize(ctx, img)
	if err != nil {
		return Result{}, pipeerr.NewOCRFailed(err)
	}

	report(90, "correcting geometry")
	res.Words = CorrectGeometry(res.Words)

	e.logger.Debug("extraction complete",
		zap.Int("words", len(res.Words)),
		zap.Float64("mean_confidence", res.Confidence),
	)
	report(100, "done")
	return res, nil
}

// Close releases engine resources.
func (e *Extractor) Close() error {
	return e.engine.Close()
}
