//go:build tesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"screen-capture-ocr/src/pixelformat"
)

// TesseractRecognizer runs libtesseract in-process through gosseract. The
// client is not safe for concurrent use, so calls are serialized.
type TesseractRecognizer struct {
	mu     sync.Mutex
	client *gosseract.Client
}

func newTesseract(opts Options) (Recognizer, error) {
	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, &InitError{Engine: EngineTesseract, Err: err}
	}
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, &InitError{Engine: EngineTesseract, Err: err}
		}
		log.Printf("OCR: tesseract %s using tessdata at %s (%s)", gosseract.Version(), opts.TessdataPrefix, lang)
		return &TesseractRecognizer{client: client}, nil
	}
	// Probe now so missing traineddata fails at startup, not on first capture.
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		client.Close()
		return nil, &InitError{Engine: EngineTesseract, Err: err}
	}
	for _, l := range strings.Split(lang, "+") {
		if !slices.Contains(langs, l) {
			client.Close()
			return nil, &InitError{Engine: EngineTesseract, Err: fmt.Errorf("language %q not installed", l)}
		}
	}
	log.Printf("OCR: tesseract %s ready (%s)", gosseract.Version(), lang)
	return &TesseractRecognizer{client: client}, nil
}

func (r *TesseractRecognizer) Recognize(ctx context.Context, img *pixelformat.CanonicalImage) (string, error) {
	var buf bytes.Buffer
	if err := img.EncodePNG(&buf); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (r *TesseractRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
