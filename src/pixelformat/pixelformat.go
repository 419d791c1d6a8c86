// Package pixelformat converts device-native captures into the canonical
// top-down, unpadded 8-bit RGB layout consumed by recognizers.
package pixelformat

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"screen-capture-ocr/src/screenshot"
)

// DefaultMaxPixels bounds a single canonical buffer (roughly an 8K display).
const DefaultMaxPixels = 7680 * 4320

var (
	ErrInvalidSource = errors.New("invalid capture source")
	ErrTooLarge      = errors.New("canonical buffer exceeds pixel limit")
)

// ConversionError reports why a capture could not be converted.
type ConversionError struct {
	Width, Height int
	Err           error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %dx%d capture: %v", e.Width, e.Height, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Bridge performs the conversion. The zero value uses DefaultMaxPixels.
type Bridge struct {
	MaxPixels int
}

// Convert is Bridge{}.Convert.
func Convert(src *screenshot.CapturedImage) (*CanonicalImage, error) {
	return Bridge{}.Convert(src)
}

// Convert swaps B,G,R samples to R,G,B, reads rows through the source stride
// and emits rows top-down.
func (b Bridge) Convert(src *screenshot.CapturedImage) (*CanonicalImage, error) {
	if src == nil {
		return nil, &ConversionError{Err: ErrInvalidSource}
	}
	w, h := src.Width(), src.Height()
	limit := b.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if w <= 0 || h <= 0 {
		return nil, &ConversionError{Width: w, Height: h, Err: ErrInvalidSource}
	}
	if w > limit/h {
		return nil, &ConversionError{Width: w, Height: h, Err: ErrTooLarge}
	}

	unpack, err := unpacker(src.BitsPerPixel())
	if err != nil {
		return nil, &ConversionError{Width: w, Height: h, Err: err}
	}

	dst := &CanonicalImage{width: w, height: h, pix: make([]byte, w*h*3)}
	for y := 0; y < h; y++ {
		line := src.ScanLine(y)
		out := dst.pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			out[x*3], out[x*3+1], out[x*3+2] = unpack(line, x)
		}
	}
	return dst, nil
}

type unpackFunc func(line []byte, x int) (r, g, b uint8)

func unpacker(bitsPerPixel int) (unpackFunc, error) {
	switch bitsPerPixel {
	case 32:
		return func(line []byte, x int) (uint8, uint8, uint8) {
			o := x * 4
			return line[o+2], line[o+1], line[o]
		}, nil
	case 24:
		return func(line []byte, x int) (uint8, uint8, uint8) {
			o := x * 3
			return line[o+2], line[o+1], line[o]
		}, nil
	case 16:
		// X1R5G5B5, little endian.
		return func(line []byte, x int) (uint8, uint8, uint8) {
			v := uint16(line[x*2]) | uint16(line[x*2+1])<<8
			return expand5(v >> 10), expand5(v >> 5), expand5(v)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidSource, bitsPerPixel)
	}
}

func expand5(v uint16) uint8 {
	c := uint8(v & 0x1f)
	return c<<3 | c>>2
}

// CanonicalImage is an immutable top-down RGB buffer with no row padding.
// It implements image.Image.
type CanonicalImage struct {
	width  int
	height int
	pix    []byte
}

// NewCanonicalImage copies pix, which must hold width*height R,G,B triples.
func NewCanonicalImage(width, height int, pix []byte) (*CanonicalImage, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height*3 {
		return nil, &ConversionError{Width: width, Height: height, Err: ErrInvalidSource}
	}
	return &CanonicalImage{width: width, height: height, pix: append([]byte(nil), pix...)}, nil
}

func (c *CanonicalImage) Width() int  { return c.width }
func (c *CanonicalImage) Height() int { return c.height }

// Pix returns the underlying R,G,B bytes. It must not be modified.
func (c *CanonicalImage) Pix() []byte { return c.pix }

// RGBAt returns the samples of pixel (x, y).
func (c *CanonicalImage) RGBAt(x, y int) (r, g, b uint8) {
	o := (y*c.width + x) * 3
	return c.pix[o], c.pix[o+1], c.pix[o+2]
}

func (c *CanonicalImage) ColorModel() color.Model { return color.RGBAModel }

func (c *CanonicalImage) Bounds() image.Rectangle { return image.Rect(0, 0, c.width, c.height) }

func (c *CanonicalImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(c.Bounds())) {
		return color.RGBA{}
	}
	r, g, b := c.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// RGBA expands the image into an opaque *image.RGBA.
func (c *CanonicalImage) RGBA() *image.RGBA {
	img := image.NewRGBA(c.Bounds())
	for i, j := 0, 0; i < len(c.pix); i, j = i+3, j+4 {
		img.Pix[j] = c.pix[i]
		img.Pix[j+1] = c.pix[i+1]
		img.Pix[j+2] = c.pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// EncodePNG writes the image as PNG.
func (c *CanonicalImage) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.RGBA())
}
