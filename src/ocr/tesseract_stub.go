//go:build !tesseract

package ocr

import "errors"

// ErrTesseractUnavailable is returned by binaries built without the tesseract tag.
var ErrTesseractUnavailable = errors.New("built without tesseract support (rebuild with -tags tesseract)")

func newTesseract(Options) (Recognizer, error) {
	return nil, &InitError{Engine: EngineTesseract, Err: ErrTesseractUnavailable}
}
