package screenshot

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// DisplayDevice captures through kbinani/screenshot and repacks the RGBA result
// into the native 32-bit B,G,R,X layout.
type DisplayDevice struct{}

// Bounds returns the bounds of the primary display
func (DisplayDevice) Bounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	return screenshot.GetDisplayBounds(0), nil
}

func (DisplayDevice) Grab(bounds image.Rectangle) (*CapturedImage, error) {
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return fromRGBA(img)
}

func fromRGBA(img *image.RGBA) (*CapturedImage, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := AlignedStride(w, 32)
	pix := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dst := pix[y*stride:]
		for x := 0; x < w; x++ {
			o := x * 4
			dst[o] = src[o+2]
			dst[o+1] = src[o+1]
			dst[o+2] = src[o]
			dst[o+3] = 0
		}
	}
	return NewCapturedImage(w, h, 32, stride, pix, true)
}
