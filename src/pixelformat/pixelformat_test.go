package pixelformat

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-capture-ocr/src/screenshot"
)

func capture(t *testing.T, w, h, bpp, stride int, pix []byte, topDown bool) *screenshot.CapturedImage {
	t.Helper()
	img, err := screenshot.NewCapturedImage(w, h, bpp, stride, pix, topDown)
	require.NoError(t, err)
	return img
}

func TestConvertSwapsChannels24bpp(t *testing.T) {
	// 2x2, 24bpp, stride 8 (6 data bytes + 2 padding).
	pix := []byte{
		10, 20, 30, 40, 50, 60, 0xEE, 0xEE,
		70, 80, 90, 100, 110, 120, 0xEE, 0xEE,
	}
	out, err := Convert(capture(t, 2, 2, 24, 8, pix, true))
	require.NoError(t, err)

	assert.Equal(t, 2, out.Width())
	assert.Equal(t, 2, out.Height())
	assert.Equal(t, []byte{30, 20, 10, 60, 50, 40, 90, 80, 70, 120, 110, 100}, out.Pix())
}

func TestConvertBottomUp(t *testing.T) {
	pix := []byte{
		70, 80, 90, 100, 110, 120, 0, 0, // stored first, shown last
		10, 20, 30, 40, 50, 60, 0, 0,
	}
	out, err := Convert(capture(t, 2, 2, 24, 8, pix, false))
	require.NoError(t, err)
	assert.Equal(t, []byte{30, 20, 10, 60, 50, 40, 90, 80, 70, 120, 110, 100}, out.Pix())
}

func TestConvert32bppIgnoresPadByte(t *testing.T) {
	pix := []byte{1, 2, 3, 0xFF, 4, 5, 6, 0x00}
	out, err := Convert(capture(t, 2, 1, 32, 8, pix, true))
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1, 6, 5, 4}, out.Pix())
}

func TestConvert16bpp(t *testing.T) {
	// X1R5G5B5: pure red (0x7C00) and pure blue (0x001F), little endian.
	pix := []byte{0x00, 0x7C, 0x1F, 0x00}
	out, err := Convert(capture(t, 2, 1, 16, 4, pix, true))
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 0, 0, 255}, out.Pix())
}

func TestConvertStrideIsNeverPacked(t *testing.T) {
	// 3 px wide at 24bpp needs 9 bytes, padded to 12.
	w, h := 3, 4
	stride := screenshot.AlignedStride(w, 24)
	require.Equal(t, 12, stride)
	pix := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*stride + x*3
			pix[o], pix[o+1], pix[o+2] = byte(x), byte(y), 0x80
		}
	}
	out, err := Convert(capture(t, w, h, 24, stride, pix, true))
	require.NoError(t, err)
	require.Len(t, out.Pix(), w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := out.RGBAt(x, y)
			assert.Equal(t, [3]uint8{0x80, byte(y), byte(x)}, [3]uint8{r, g, b}, "pixel %d,%d", x, y)
		}
	}
}

func TestConvertRejectsInvalidSource(t *testing.T) {
	_, err := Convert(nil)
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestConvertRejectsOversizedBuffer(t *testing.T) {
	b := Bridge{MaxPixels: 3}
	_, err := b.Convert(capture(t, 2, 2, 24, 8, make([]byte, 16), true))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestCanonicalImageInterop(t *testing.T) {
	img, err := NewCanonicalImage(1, 2, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	rgba := img.RGBA()
	assert.Equal(t, []byte{1, 2, 3, 255, 4, 5, 6, 255}, rgba.Pix)

	var buf bytes.Buffer
	require.NoError(t, img.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	r, g, b, _ := decoded.At(0, 1).RGBA()
	assert.Equal(t, []uint32{4, 5, 6}, []uint32{r >> 8, g >> 8, b >> 8})

	_, err = NewCanonicalImage(2, 2, []byte{1, 2, 3})
	assert.Error(t, err)
}
