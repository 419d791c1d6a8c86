// Package ocr turns canonical images into text. Engines are chosen at startup
// and fail there, once, when their resources cannot be loaded.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"screen-capture-ocr/src/llm"
	"screen-capture-ocr/src/pixelformat"
)

const (
	EngineLLM       = "llm"
	EngineTesseract = "tesseract"
)

// Recognizer reads text from an image. An empty string means no text.
type Recognizer interface {
	Recognize(ctx context.Context, img *pixelformat.CanonicalImage) (string, error)
	Close() error
}

// InitError reports an engine that could not start.
type InitError struct {
	Engine string
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize %s recognizer: %v", e.Engine, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Options selects and configures the engine.
type Options struct {
	Engine         string
	Language       string
	TessdataPrefix string
	LLM            llm.Config
	// SkipPing avoids the startup network check of the LLM engine.
	SkipPing    bool
	PingTimeout time.Duration
}

// New builds the configured recognizer or returns *InitError.
func New(ctx context.Context, opts Options) (Recognizer, error) {
	switch opts.Engine {
	case EngineTesseract:
		return newTesseract(opts)
	case EngineLLM, "":
		return newLLM(ctx, opts)
	default:
		return nil, &InitError{Engine: opts.Engine, Err: fmt.Errorf("unknown engine")}
	}
}

// LLMRecognizer sends the image as PNG to a vision model.
type LLMRecognizer struct {
	client *llm.Client
}

func newLLM(ctx context.Context, opts Options) (Recognizer, error) {
	client, err := llm.New(opts.LLM)
	if err != nil {
		return nil, &InitError{Engine: EngineLLM, Err: err}
	}
	if !opts.SkipPing {
		timeout := opts.PingTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pctx); err != nil {
			return nil, &InitError{Engine: EngineLLM, Err: err}
		}
		log.Printf("OCR: LLM ping succeeded")
	}
	return &LLMRecognizer{client: client}, nil
}

// NewLLMRecognizer wraps an existing client.
func NewLLMRecognizer(client *llm.Client) *LLMRecognizer {
	return &LLMRecognizer{client: client}
}

func (r *LLMRecognizer) Recognize(ctx context.Context, img *pixelformat.CanonicalImage) (string, error) {
	var buf bytes.Buffer
	if err := img.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	log.Printf("OCR: sending %dx%d image (%d bytes) to LLM", img.Width(), img.Height(), buf.Len())
	return r.client.QueryVision(ctx, buf.Bytes())
}

func (r *LLMRecognizer) Close() error { return nil }
