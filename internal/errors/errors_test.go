package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Run("DirectError", func(t *testing.T) {
		err := NewOCRTimeout("req-1")
		if CodeOf(err) != CodeOCRTimeout {
			t.Errorf("Expected OCR_TIMEOUT, got %s", CodeOf(err))
		}
	})

	t.Run("WrappedError", func(t *testing.T) {
		err := fmt.Errorf("page 3: %w", NewCanvasError("surface gone"))
		if CodeOf(err) != CodeCanvasError {
			t.Errorf("Expected CANVAS_ERROR through wrapping, got %s", CodeOf(err))
		}
	})

	t.Run("ForeignError", func(t *testing.T) {
		if CodeOf(stderrors.New("plain")) != "" {
			t.Error("Plain errors must yield an empty code")
		}
		if CodeOf(nil) != "" {
			t.Error("nil must yield an empty code")
		}
	})
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("tessdata missing")
	err := NewOCRInitFailed(cause)

	if !stderrors.Is(err, cause) {
		t.Error("The original cause must be reachable through Unwrap")
	}
	if Is(err, CodeOCRFailed) {
		t.Error("Is must not match a different code")
	}
	if !Is(err, CodeOCRInitFailed) {
		t.Error("Is must match the carried code")
	}
}

func TestErrorMessage(t *testing.T) {
	withCause := NewExportFailed(stderrors.New("disk full"))
	msg := withCause.Error()
	if msg == "" || msg == "EXPORT_FAILED" {
		t.Errorf("Message should carry code, stage and cause, got %q", msg)
	}

	withoutCause := NewFileTooLarge(100, 50)
	if withoutCause.Error() == "" {
		t.Error("Message must not be empty without a cause")
	}
}
