//go:build !onnx

package detector

import (
	"errors"

	pipeerr "github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/logger"
)

// newNeuralRecognizer always fails when built without the 'onnx' tag; the
// detector degrades to pattern-only matching.
func newNeuralRecognizer(modelPath string, log *logger.Logger) (NeuralRecognizer, error) {
	return nil, pipeerr.NewModelLoadFailed(errors.New("built without onnx support"))
}
