package ocr

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raaihank/docsentinel/internal/config"
	pipeerr "github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/logger"
)

type requestKind int

const (
	reqInit requestKind = iota
	reqExtract
)

type request struct {
	id       string
	kind     requestKind
	image    image.Image
	progress Progress
}

type response struct {
	id     string
	result Result
	err    error
}

// Worker runs extraction off the caller's goroutine. Communication is
// message-based: requests carry a correlation id, responses are matched
// against a pending table, and a response for an id no longer pending is
// dropped silently. Termination rejects every outstanding request instead of
// leaving it to time out.
type Worker struct {
	extractor      *Extractor
	requests       chan request
	initTimeout    time.Duration
	extractTimeout time.Duration
	logger         *logger.Logger

	mu      sync.Mutex
	pending map[string]chan response

	quit     chan struct{}
	quitOnce sync.Once
}

// NewWorker starts the extraction worker goroutine.
func NewWorker(extractor *Extractor, cfg config.OCRConfig, log *logger.Logger) *Worker {
	queue := cfg.QueueSize
	if queue < 1 {
		queue = 1
	}
	w := &Worker{
		extractor:      extractor,
		requests:       make(chan request, queue),
		initTimeout:    cfg.InitTimeout,
		extractTimeout: cfg.ExtractTimeout,
		logger:         log.WithComponent("ocr-worker"),
		pending:        make(map[string]chan response),
		quit:           make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	for {
		select {
		case <-w.quit:
			return
		case req := <-w.requests:
			resp := response{id: req.id}
			switch req.kind {
			case reqInit:
				resp.err = w.extractor.Initialize(context.Background())
			case reqExtract:
				resp.result, resp.err = w.extractor.ExtractText(context.Background(), req.image, req.progress)
			}
			w.deliver(resp)
		}
	}
}

func (w *Worker) deliver(resp response) {
	w.mu.Lock()
	ch, ok := w.pending[resp.id]
	if ok {
		delete(w.pending, resp.id)
	}
	w.mu.Unlock()

	if !ok {
		// The caller gave up (timeout or termination). Drop the stale
		// response instead of erroring.
		w.logger.Debug("dropping response for unknown request", zap.String("request_id", resp.id))
		return
	}
	ch <- resp
}

func (w *Worker) register(id string) chan response {
	ch := make(chan response, 1)
	w.mu.Lock()
	w.pending[id] = ch
	w.mu.Unlock()
	return ch
}

func (w *Worker) unregister(id string) {
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
}

// Start requests engine initialization and waits for the outcome.
func (w *Worker) Start(ctx context.Context) error {
	_, err := w.submit(ctx, request{id: uuid.NewString(), kind: reqInit}, w.initTimeout)
	return err
}

// Extract submits one page for extraction and blocks until a response, the
// timeout, or termination. Callers serialize extraction; the worker itself
// accepts whatever is queued.
func (w *Worker) Extract(ctx context.Context, img image.Image, progress Progress) (Result, error) {
	return w.submit(ctx, request{id: uuid.NewString(), kind: reqExtract, image: img, progress: progress}, w.extractTimeout)
}

func (w *Worker) submit(ctx context.Context, req request, timeout time.Duration) (Result, error) {
	ch := w.register(req.id)

	select {
	case w.requests <- req:
	case <-w.quit:
		w.unregister(req.id)
		return Result{}, pipeerr.NewWorkerTerminated(req.id)
	case <-ctx.Done():
		w.unregister(req.id)
		return Result{}, ctx.Err()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp.result, resp.err
	case <-timer.C:
		w.unregister(req.id)
		w.logger.Warn("request timed out",
			zap.String("request_id", req.id),
			zap.Duration("timeout", timeout),
		)
		return Result{}, pipeerr.NewOCRTimeout(req.id)
	case <-w.quit:
		w.unregister(req.id)
		return Result{}, pipeerr.NewWorkerTerminated(req.id)
	case <-ctx.Done():
		w.unregister(req.id)
		return Result{}, ctx.Err()
	}
}

// Terminate shuts the worker down and rejects all outstanding requests with a
// terminated error rather than leaving them to time out.
func (w *Worker) Terminate() {
	w.quitOnce.Do(func() {
		close(w.quit)

		w.mu.Lock()
		for id, ch := range w.pending {
			ch <- response{id: id, err: pipeerr.NewWorkerTerminated(id)}
			delete(w.pending, id)
		}
		w.mu.Unlock()

		w.logger.Info("worker terminated")
	})
}
