//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using the gosseract client.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine constructs the Tesseract-backed OCR engine.
func NewEngine() Engine {
	return &TesseractEngine{}
}

// Init creates the client and loads the language model. The first call on a
// fresh installation downloads nothing itself; Tesseract resolves trained
// data from dataDir (or its default prefix when dataDir is empty).
func (e *TesseractEngine) Init(ctx context.Context, language, dataDir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return nil
	}

	client := gosseract.NewClient()
	if dataDir != "" {
		if err := client.SetTessdataPrefix(dataDir); err != nil {
			client.Close()
			return fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return fmt.Errorf("set language %q: %w", language, err)
	}
	e.client = client
	return nil
}

// Recognize runs OCR against a rasterized page and returns the full text plus
// per-word geometry in reading order.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return Result{}, fmt.Errorf("engine not initialized")
	}

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, fmt.Errorf("encode page: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("word geometry: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		sum += b.Confidence
		words = append(words, Word{
			Text: b.Word,
			BBox: BBox{
				X0: float64(b.Box.Min.X),
				Y0: float64(b.Box.Min.Y),
				X1: float64(b.Box.Max.X),
				Y1: float64(b.Box.Max.Y),
			},
			Confidence: b.Confidence,
		})
	}

	var avg float64
	if len(words) > 0 {
		avg = sum / float64(len(words))
	}

	return Result{Text: text, Words: words, Confidence: avg}, nil
}

// Close releases the underlying client.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
