package screenshot

import (
	"errors"
	"fmt"
	"image"
	"log"
)

var (
	// ErrInvalidDimensions is returned for a capture request with a non-positive width or height.
	ErrInvalidDimensions = errors.New("invalid capture dimensions")
	// ErrDeviceUnavailable is returned when the capture device cannot be acquired or misbehaves.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
)

// Point is a screen position in pixels.
type Point struct {
	X int
	Y int
}

// Region represents a screen region to capture
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// RegionFromRect is the inverse of Region.Rect for canonical rectangles.
func RegionFromRect(rect image.Rectangle) Region {
	rect = rect.Canon()
	return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// CaptureError reports a failed capture attempt. No image is exposed alongside it.
type CaptureError struct {
	Region Region
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %dx%d at (%d,%d): %v", e.Region.Width, e.Region.Height, e.Region.X, e.Region.Y, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Device grabs raw pixels from a display.
type Device interface {
	// Bounds returns the primary display rectangle in screen coordinates.
	Bounds() (image.Rectangle, error)
	// Grab copies the pixels under bounds without scaling.
	Grab(bounds image.Rectangle) (*CapturedImage, error)
}

// Snapshotter validates capture requests and delegates the pixel copy to a Device.
type Snapshotter struct {
	device Device
}

// New returns a Snapshotter backed by device, or by DefaultDevice when device is nil.
func New(device Device) *Snapshotter {
	if device == nil {
		device = DefaultDevice()
	}
	return &Snapshotter{device: device}
}

// Capture copies the w×h screen rectangle at (x, y).
func (s *Snapshotter) Capture(x, y, w, h int) (*CapturedImage, error) {
	region := Region{X: x, Y: y, Width: w, Height: h}
	if w <= 0 || h <= 0 {
		return nil, &CaptureError{Region: region, Err: ErrInvalidDimensions}
	}

	img, err := s.device.Grab(region.Rect())
	if err != nil {
		log.Printf("CAPTURE: device failed for %+v: %v", region, err)
		if errors.Is(err, ErrDeviceUnavailable) {
			return nil, &CaptureError{Region: region, Err: err}
		}
		return nil, &CaptureError{Region: region, Err: fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)}
	}
	if img == nil || img.Width() != w || img.Height() != h {
		return nil, &CaptureError{Region: region, Err: fmt.Errorf("%w: device returned a mismatched image", ErrDeviceUnavailable)}
	}
	return img, nil
}

// CaptureRegion is Capture for a Region value.
func (s *Snapshotter) CaptureRegion(region Region) (*CapturedImage, error) {
	return s.Capture(region.X, region.Y, region.Width, region.Height)
}

// CaptureScreen captures the whole primary display.
func (s *Snapshotter) CaptureScreen() (*CapturedImage, error) {
	bounds, err := s.ScreenBounds()
	if err != nil {
		return nil, &CaptureError{Err: err}
	}
	return s.CaptureRegion(RegionFromRect(bounds))
}

// ScreenBounds returns the bounds of the primary display
func (s *Snapshotter) ScreenBounds() (image.Rectangle, error) {
	bounds, err := s.device.Bounds()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if bounds.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: no active displays found", ErrDeviceUnavailable)
	}
	return bounds, nil
}
