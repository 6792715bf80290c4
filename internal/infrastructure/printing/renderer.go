package printing

import (
	"context"
	"time"
)

// PageOptions controls the printed page. Margins are in millimetres.
type PageOptions struct {
	Title        string
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64
	Timeout      time.Duration
}

// DefaultPageOptions is an A4 portrait page with 10mm margins.
func DefaultPageOptions() PageOptions {
	return PageOptions{MarginTop: 10, MarginRight: 10, MarginBottom: 10, MarginLeft: 10}
}

// PDFRenderer prints a complete HTML document to PDF.
type PDFRenderer interface {
	Render(ctx context.Context, html string, opts PageOptions) ([]byte, error)
	Close() error
}

type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidHTML    = "INVALID_HTML"
	ErrCodeTemplateFailed = "TEMPLATE_FAILED"
)

func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
