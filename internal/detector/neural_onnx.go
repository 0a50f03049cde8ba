//go:build onnx

package detector

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	pipeerr "github.com/raaihank/docsentinel/internal/errors"
	"github.com/raaihank/docsentinel/internal/logger"
	"github.com/raaihank/docsentinel/internal/ocr"
)

// onnxRecognizer loads a token-classification model through ONNX Runtime.
// Requires build tag 'onnx'.
type onnxRecognizer struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	outputName string
	logger     *logger.Logger
	mu         sync.Mutex
}

// newNeuralRecognizer initializes the ONNX Runtime session for the model at
// modelPath. Any failure is reported as MODEL_LOAD_FAILED so the caller can
// degrade to pattern-only detection.
func newNeuralRecognizer(modelPath string, log *logger.Logger) (NeuralRecognizer, error) {
	// Allow user to provide shared library path via environment variable.
	if shlib := os.Getenv("ONNXRUNTIME_SHARED_LIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	} else if shlib := os.Getenv("ORT_SHLIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, pipeerr.NewModelLoadFailed(err)
	}

	inputsInfo, outputsInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, pipeerr.NewModelLoadFailed(fmt.Errorf("inspect model %s: %w", modelPath, err))
	}

	// Prefer common transformer inputs order
	preferredInputs := []string{"input_ids", "attention_mask", "token_type_ids"}
	available := map[string]bool{}
	for _, ii := range inputsInfo {
		available[strings.ToLower(ii.Name)] = true
	}
	var inputNames []string
	for _, name := range preferredInputs {
		if available[name] {
			inputNames = append(inputNames, name)
		}
	}
	// If no preferred names matched, fall back to model-declared order,
	// sorted by name for determinism.
	if len(inputNames) == 0 && len(inputsInfo) > 0 {
		sorted := make([]string, 0, len(inputsInfo))
		for _, ii := range inputsInfo {
			sorted = append(sorted, ii.Name)
		}
		sort.Strings(sorted)
		inputNames = sorted
	}

	if len(outputsInfo) == 0 {
		return nil, pipeerr.NewModelLoadFailed(fmt.Errorf("model %s reports no outputs", modelPath))
	}
	outputName := outputsInfo[0].Name

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputName}, nil)
	if err != nil {
		return nil, pipeerr.NewModelLoadFailed(fmt.Errorf("session for %s: %w", modelPath, err))
	}

	log.Info("neural recognizer ready",
		zap.String("model", modelPath),
		zap.Strings("inputs", inputNames),
		zap.String("output", outputName),
	)
	return &onnxRecognizer{
		session:    session,
		inputNames: inputNames,
		outputName: outputName,
		logger:     log,
	}, nil
}

// Detect is the enhancement point for model-based entity recognition.
// TODO: decode token logits into entity spans once the fine-tuned NER model
// ships with its tokenizer vocabulary; until then the recognizer contributes
// nothing and pattern matching stays authoritative.
func (r *onnxRecognizer) Detect(ctx context.Context, text string, words []ocr.Word) ([]Detection, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return nil, nil
}

// Close releases session and environment resources.
func (r *onnxRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.session.Destroy()
		r.session = nil
	}
	ort.DestroyEnvironment()
	return nil
}
