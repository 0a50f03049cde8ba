//go:build !ocr

package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrOCRNotEnabled is returned by the stub engine compiled without the "ocr"
// build tag.
var ErrOCRNotEnabled = errors.New("ocr support not enabled; rebuild with -tags ocr")

type stubEngine struct{}

// NewEngine returns the stub engine. Initialization always fails, which the
// session surfaces as manual-only redaction mode.
func NewEngine() Engine {
	return stubEngine{}
}

func (stubEngine) Init(ctx context.Context, language, dataDir string) error {
	return ErrOCRNotEnabled
}

func (stubEngine) Recognize(ctx context.Context, img image.Image) (Result, error) {
	return Result{}, ErrOCRNotEnabled
}

func (stubEngine) Close() error { return nil }
