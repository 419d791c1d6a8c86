//go:build !tesseract

package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTesseractUnavailableWithoutTag(t *testing.T) {
	_, err := New(context.Background(), Options{Engine: EngineTesseract})
	var initErr *InitError
	assert.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, ErrTesseractUnavailable)
}
