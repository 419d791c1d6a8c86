//go:build windows

package screenshot

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/lxn/win"
)

// GDIDevice copies screen pixels with BitBlt and reads them back as a 24-bit
// top-down DIB with DWORD-aligned rows.
type GDIDevice struct{}

func (GDIDevice) Bounds() (image.Rectangle, error) {
	w := win.GetSystemMetrics(win.SM_CXSCREEN)
	h := win.GetSystemMetrics(win.SM_CYSCREEN)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("GetSystemMetrics returned %dx%d", w, h)
	}
	return image.Rect(0, 0, int(w), int(h)), nil
}

func (GDIDevice) Grab(bounds image.Rectangle) (*CapturedImage, error) {
	w, h := int32(bounds.Dx()), int32(bounds.Dy())

	screenDC := win.GetDC(0)
	if screenDC == 0 {
		return nil, fmt.Errorf("%w: GetDC failed", ErrDeviceUnavailable)
	}
	defer win.ReleaseDC(0, screenDC)

	memDC := win.CreateCompatibleDC(screenDC)
	if memDC == 0 {
		return nil, fmt.Errorf("%w: CreateCompatibleDC failed", ErrDeviceUnavailable)
	}
	defer win.DeleteDC(memDC)

	bitmap := win.CreateCompatibleBitmap(screenDC, w, h)
	if bitmap == 0 {
		return nil, fmt.Errorf("%w: CreateCompatibleBitmap failed", ErrDeviceUnavailable)
	}
	defer win.DeleteObject(win.HGDIOBJ(bitmap))

	old := win.SelectObject(memDC, win.HGDIOBJ(bitmap))
	copied := win.BitBlt(memDC, 0, 0, w, h, screenDC, int32(bounds.Min.X), int32(bounds.Min.Y), win.SRCCOPY|win.CAPTUREBLT)
	win.SelectObject(memDC, old)
	if !copied {
		return nil, fmt.Errorf("%w: BitBlt failed", ErrDeviceUnavailable)
	}

	const bitCount = 24
	info := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       w,
			BiHeight:      -h, // negative: top-down rows
			BiPlanes:      1,
			BiBitCount:    bitCount,
			BiCompression: win.BI_RGB,
		},
	}
	stride := AlignedStride(int(w), bitCount)
	pix := make([]byte, stride*int(h))
	lines := win.GetDIBits(memDC, bitmap, 0, uint32(h), &pix[0], &info, win.DIB_RGB_COLORS)
	if lines != h {
		return nil, fmt.Errorf("%w: GetDIBits copied %d of %d lines", ErrDeviceUnavailable, lines, h)
	}

	return NewCapturedImage(int(w), int(h), bitCount, stride, pix, true)
}

// DefaultDevice returns the GDI capture device.
func DefaultDevice() Device {
	return GDIDevice{}
}
