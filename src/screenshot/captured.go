package screenshot

import "fmt"

// CapturedImage is a device-native bitmap: rows of B,G,R[,X] samples, each row
// Stride bytes long, possibly stored bottom-up. It is immutable once created.
type CapturedImage struct {
	width        int
	height       int
	bitsPerPixel int
	stride       int
	topDown      bool
	pix          []byte
}

// NewCapturedImage wraps pix without copying. Callers hand over ownership of pix.
func NewCapturedImage(width, height, bitsPerPixel, stride int, pix []byte, topDown bool) (*CapturedImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	switch bitsPerPixel {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitsPerPixel)
	}
	if rowBytes := (width*bitsPerPixel + 7) / 8; stride < rowBytes {
		return nil, fmt.Errorf("stride %d shorter than row of %d bytes", stride, rowBytes)
	}
	if len(pix) < stride*height {
		return nil, fmt.Errorf("pixel buffer holds %d bytes, need %d", len(pix), stride*height)
	}
	return &CapturedImage{
		width:        width,
		height:       height,
		bitsPerPixel: bitsPerPixel,
		stride:       stride,
		topDown:      topDown,
		pix:          pix,
	}, nil
}

// AlignedStride returns the row size for width pixels padded to a 4-byte boundary.
func AlignedStride(width, bitsPerPixel int) int {
	return ((width*bitsPerPixel + 31) &^ 31) / 8
}

func (c *CapturedImage) Width() int        { return c.width }
func (c *CapturedImage) Height() int       { return c.height }
func (c *CapturedImage) BitsPerPixel() int { return c.bitsPerPixel }
func (c *CapturedImage) Stride() int       { return c.stride }

// TopDown reports whether row 0 of the buffer is the topmost scan line.
func (c *CapturedImage) TopDown() bool { return c.topDown }

// Row returns the stored row i (buffer order, not screen order), including padding.
// The returned slice must not be modified.
func (c *CapturedImage) Row(i int) []byte {
	return c.pix[i*c.stride : (i+1)*c.stride]
}

// ScanLine returns screen row y (0 is the top), honouring the row order.
func (c *CapturedImage) ScanLine(y int) []byte {
	if c.topDown {
		return c.Row(y)
	}
	return c.Row(c.height - 1 - y)
}
