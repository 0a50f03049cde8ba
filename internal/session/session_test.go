package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"github.com/raaihank/docsentinel/internal/config"
	"github.com/raaihank/docsentinel/internal/detector"
	"github.com/raaihank/docsentinel/internal/document"
	pipeerr "github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/export"
	"github.com/raaihank/docsentinel/internal/logger"
	"github.com/raaihank/docsentinel/internal/ocr"
)

// scanEngine fakes the OCR engine with a fixed recognition result.
type scanEngine struct {
	initErr      error
	recognizeErr error
	result       ocr.Result
}

func (f *scanEngine) Init(ctx context.Context, language, dataDir string) error { return f.initErr }

func (f *scanEngine) Recognize(ctx context.Context, img image.Image) (ocr.Result, error) {
	if f.recognizeErr != nil {
		return ocr.Result{}, f.recognizeErr
	}
	return f.result, nil
}

func (f *scanEngine) Close() error { return nil }

// layoutWords places space-separated tokens on one line, 8px per character
// with an 8px gap, mirroring how words land on a rendered scan.
func layoutWords(text string) []ocr.Word {
	var words []ocr.Word
	x := 0.0
	for _, token := range strings.Fields(text) {
		width := float64(len(token)) * 8
		words = append(words, ocr.Word{
			Text:       token,
			BBox:       ocr.BBox{X0: x, Y0: 10, X1: x + width, Y1: 22},
			Confidence: 90,
		})
		x += width + 8
	}
	return words
}

func scanDocument(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 60))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test document: %v", err)
	}
	return buf.Bytes()
}

func newTestSession(t *testing.T, engine ocr.Engine) *Session {
	t.Helper()
	sess, err := New(config.GetDefaults(), logger.NewNop(), WithEngine(engine))
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func TestSessionPipeline(t *testing.T) {
	text := "Contact me at jane@example.com or 555-123-4567"
	engine := &scanEngine{result: ocr.Result{
		Text:       text,
		Words:      layoutWords(text),
		Confidence: 90,
	}}
	sess := newTestSession(t, engine)

	if err := sess.LoadDocument(scanDocument(t)); err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	detections, err := sess.DetectPage(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("DetectPage failed: %v", err)
	}
	if len(detections) != 2 {
		t.Fatalf("Expected email and phone detections, got %v", detections)
	}
	if detections[0].Type != detector.TypeEmail || detections[1].Type != detector.TypePhone {
		t.Fatalf("Unexpected detection types: %s, %s", detections[0].Type, detections[1].Type)
	}

	created := sess.Store().AddAutoDetectedRegions(1, detections)
	if len(created) != 2 {
		t.Fatalf("Expected two regions, got %d", len(created))
	}

	t.Run("RedactedPageFlattensRegions", func(t *testing.T) {
		flattened, err := sess.RedactedPage(context.Background(), 1)
		if err != nil {
			t.Fatalf("RedactedPage failed: %v", err)
		}
		// Inside the email word box.
		if got := flattened.RGBAAt(150, 15); got != (color.RGBA{A: 255}) {
			t.Errorf("Pixel inside a region should be black, got %v", got)
		}
		// Well outside every region.
		if got := flattened.RGBAAt(50, 45); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
			t.Errorf("Pixel outside regions should stay white, got %v", got)
		}
	})

	t.Run("CachedSurfaceNeverMutated", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			flattened, err := sess.RedactedPage(context.Background(), 1)
			if err != nil {
				t.Fatalf("RedactedPage failed: %v", err)
			}
			if got := flattened.RGBAAt(50, 45); got.R != 255 {
				t.Fatalf("Run %d: cached surface was mutated, got %v", i, got)
			}
		}
	})

	t.Run("PreviewKeepsUnderlyingVisible", func(t *testing.T) {
		preview, err := sess.PreviewPage(context.Background(), 1, 1.0)
		if err != nil {
			t.Fatalf("PreviewPage failed: %v", err)
		}
		if preview == nil {
			t.Fatal("Preview was unexpectedly superseded")
		}
		if got := preview.RGBAAt(150, 15); got == (color.RGBA{A: 255}) {
			t.Error("Preview overlay must not be opaque black")
		}
	})

	t.Run("ExportPDF", func(t *testing.T) {
		var buf bytes.Buffer
		if err := sess.Export(context.Background(), &buf, export.FormatPDF); err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "%PDF-") {
			t.Error("Export output missing PDF header")
		}
	})

	t.Run("CacheServesRepeatRenders", func(t *testing.T) {
		stats := sess.CacheStats()
		if stats.Hits == 0 {
			t.Error("Repeated page access should hit the cache")
		}
	})
}

func TestSessionManualOnlyFallback(t *testing.T) {
	engine := &scanEngine{recognizeErr: errors.New("engine crashed")}
	sess := newTestSession(t, engine)

	if err := sess.LoadDocument(scanDocument(t)); err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	_, err := sess.DetectPage(context.Background(), 1, nil)
	if pipeerr.CodeOf(err) != pipeerr.CodeOCRFailed {
		t.Fatalf("Expected OCR_FAILED, got %v", err)
	}
	if !sess.ManualOnly() {
		t.Error("Extraction failure must flip the session into manual-only mode")
	}

	t.Run("ManualRedactionStillWorks", func(t *testing.T) {
		if _, err := sess.Store().AddManualRegion(1, 20, 20, 30, 15); err != nil {
			t.Fatalf("AddManualRegion failed: %v", err)
		}
		flattened, err := sess.RedactedPage(context.Background(), 1)
		if err != nil {
			t.Fatalf("RedactedPage failed: %v", err)
		}
		if got := flattened.RGBAAt(30, 25); got != (color.RGBA{A: 255}) {
			t.Errorf("Manual region should be flattened, got %v", got)
		}
	})

	t.Run("LoadingNewDocumentResets", func(t *testing.T) {
		if err := sess.LoadDocument(scanDocument(t)); err != nil {
			t.Fatalf("LoadDocument failed: %v", err)
		}
		if sess.ManualOnly() {
			t.Error("Loading a new document must reset manual-only mode")
		}
		if sess.Store().Count() != 0 {
			t.Error("Loading a new document must clear all regions")
		}
	})
}

func TestSessionRequiresDocument(t *testing.T) {
	sess := newTestSession(t, &scanEngine{})

	if _, err := sess.DetectPage(context.Background(), 1, nil); err == nil {
		t.Error("DetectPage without a document must fail")
	}
	if _, err := sess.RedactedPage(context.Background(), 1); err == nil {
		t.Error("RedactedPage without a document must fail")
	}
	var buf bytes.Buffer
	if err := sess.Export(context.Background(), &buf, export.FormatPDF); pipeerr.CodeOf(err) != pipeerr.CodeExportFailed {
		t.Errorf("Expected EXPORT_FAILED without a document, got %v", err)
	}
}

// zeroPageSource simulates a rasterizer that accepted a document but found
// nothing to render in it.
type zeroPageSource struct{}

func (zeroPageSource) PageCount() int { return 0 }

func (zeroPageSource) RenderPage(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	return nil, pipeerr.New(pipeerr.CodeInvalidFileFormat, "render", "page out of range", nil)
}

func TestSessionExportZeroPageDocument(t *testing.T) {
	sess := newTestSession(t, &scanEngine{})

	data := []byte("%PDF-1.4\nempty")
	if err := sess.LoadDocument(data, document.WithPageSource(zeroPageSource{})); err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}

	var buf bytes.Buffer
	err := sess.Export(context.Background(), &buf, export.FormatPDF)
	if pipeerr.CodeOf(err) != pipeerr.CodeExportFailed {
		t.Errorf("Expected EXPORT_FAILED for a document with no pages, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("Failed export must not write anything")
	}
}

func TestSessionRejectsOversizedDocument(t *testing.T) {
	cfg := config.GetDefaults()
	cfg.Limits.MaxFileSize = 16
	sess, err := New(cfg, logger.NewNop(), WithEngine(&scanEngine{}))
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	defer sess.Close()

	if err := sess.LoadDocument(scanDocument(t)); pipeerr.CodeOf(err) != pipeerr.CodeFileTooLarge {
		t.Errorf("Expected FILE_TOO_LARGE, got %v", err)
	}
}

func TestSessionClose(t *testing.T) {
	sess := newTestSession(t, &scanEngine{})
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("Close must be idempotent, got %v", err)
	}

	// The worker rejects extraction after teardown.
	if err := sess.LoadDocument(scanDocument(t)); err != nil {
		t.Fatalf("LoadDocument failed: %v", err)
	}
	_, err := sess.DetectPage(context.Background(), 1, nil)
	if pipeerr.CodeOf(err) != pipeerr.CodeWorkerTerminated {
		t.Errorf("Expected WORKER_TERMINATED after close, got %v", err)
	}
}
