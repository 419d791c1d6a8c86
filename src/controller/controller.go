// Package controller drives the overlay between Hidden and Active and turns a
// finished selection into a canonical image for the recognition pipeline.
package controller

import (
	"errors"
	"fmt"
	"image"
	"log"

	"screen-capture-ocr/src/overlay"
	"screen-capture-ocr/src/pixelformat"
	"screen-capture-ocr/src/screenshot"
	"screen-capture-ocr/src/selection"
)

// State is the overlay visibility.
type State int

const (
	Hidden State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "Active"
	}
	return "Hidden"
}

// Capturer grabs screen pixels. *screenshot.Snapshotter implements it.
type Capturer interface {
	ScreenBounds() (image.Rectangle, error)
	Capture(x, y, w, h int) (*screenshot.CapturedImage, error)
}

// Converter turns native captures into canonical images. pixelformat.Bridge implements it.
type Converter interface {
	Convert(*screenshot.CapturedImage) (*pixelformat.CanonicalImage, error)
}

// Window is the overlay window provided by the host. Hide must not return
// until the window is off the screen: the final capture runs right after it.
type Window interface {
	overlay.Surface
	Show() error
	Hide() error
}

// Handoff receives the canonical image of a finished selection.
type Handoff func(*pixelformat.CanonicalImage) error

// Controller owns the overlay state, the selection tracker and the renderer.
// All methods must be called from the event loop goroutine.
type Controller struct {
	capturer  Capturer
	converter Converter
	window    Window
	handoff   Handoff
	renderer  *overlay.Renderer
	tracker   selection.Tracker
	state     State
	screen    image.Rectangle
}

// New builds a controller. The renderer is sized on first activation.
func New(capturer Capturer, converter Converter, window Window, style overlay.Style, handoff Handoff) *Controller {
	return &Controller{
		capturer:  capturer,
		converter: converter,
		window:    window,
		handoff:   handoff,
		renderer:  overlay.NewRenderer(image.Rectangle{}, style),
	}
}

func (c *Controller) State() State { return c.state }

// Selection returns the live selection in screen coordinates.
func (c *Controller) Selection() screenshot.Region { return c.tracker.Rect() }

// Renderer exposes the compositor for hosts that repaint on their own schedule.
func (c *Controller) Renderer() *overlay.Renderer { return c.renderer }

// Toggle shows the overlay when hidden. When active it hides the overlay and
// hands off the selection in progress, if any.
func (c *Controller) Toggle() error {
	if c.state == Hidden {
		return c.activate()
	}
	var final screenshot.Region
	if c.tracker.Dragging() {
		final, _ = c.tracker.End()
	}
	return c.finish(final)
}

// Cancel hides an active overlay without capturing anything.
func (c *Controller) Cancel() {
	if c.state != Active {
		return
	}
	log.Printf("OVERLAY: selection cancelled")
	c.deactivate()
}

// PointerDown starts a selection at p (screen coordinates).
func (c *Controller) PointerDown(p screenshot.Point) error {
	if c.state != Active {
		return nil
	}
	if err := c.tracker.Begin(p); err != nil {
		log.Printf("OVERLAY: ignoring pointer down: %v", err)
		return nil
	}
	c.renderer.UpdateSelection(c.toOverlay(c.tracker.Rect()))
	return c.Repaint()
}

// PointerMove stretches the selection in progress.
func (c *Controller) PointerMove(p screenshot.Point) error {
	if c.state != Active || !c.tracker.Dragging() {
		return nil
	}
	rect, err := c.tracker.Update(p)
	if err != nil {
		return err
	}
	c.renderer.UpdateSelection(c.toOverlay(rect))
	return c.Repaint()
}

// PointerUp finalizes the selection and hides the overlay. A click without a
// drag produces an empty selection and nothing is captured.
func (c *Controller) PointerUp(p screenshot.Point) error {
	if c.state != Active || !c.tracker.Dragging() {
		return nil
	}
	if _, err := c.tracker.Update(p); err != nil {
		return err
	}
	final, err := c.tracker.End()
	if err != nil {
		return err
	}
	return c.finish(final)
}

// Repaint pushes pending overlay changes to the window.
func (c *Controller) Repaint() error {
	if err := c.renderer.Repaint(c.window); err != nil {
		log.Printf("OVERLAY: repaint failed: %v", err)
		return err
	}
	return nil
}

func (c *Controller) activate() error {
	bounds, err := c.capturer.ScreenBounds()
	if err != nil {
		return &screenshot.CaptureError{Err: err}
	}
	snapshot, err := c.capturer.Capture(bounds.Min.X, bounds.Min.Y, bounds.Dx(), bounds.Dy())
	if err != nil {
		return err
	}
	background, err := c.converter.Convert(snapshot)
	if err != nil {
		return err
	}

	c.screen = bounds
	c.tracker.Reset()
	c.renderer.ClearSelection()
	c.renderer.SetBackground(background.RGBA())
	if err := c.Repaint(); err != nil {
		return err
	}
	if err := c.window.Show(); err != nil {
		c.renderer.SetBackground(nil)
		return fmt.Errorf("show overlay: %w", err)
	}
	c.state = Active
	log.Printf("OVERLAY: active over %v", bounds)
	return nil
}

func (c *Controller) deactivate() {
	if err := c.window.Hide(); err != nil {
		log.Printf("OVERLAY: hide failed: %v", err)
	}
	c.state = Hidden
	c.tracker.Reset()
	c.renderer.ClearSelection()
	c.renderer.SetBackground(nil)
}

// finish hides the overlay, then captures and hands off final. The
// selection is cleared whatever the outcome.
func (c *Controller) finish(final screenshot.Region) error {
	c.deactivate()

	clamped := screenshot.RegionFromRect(final.Rect().Intersect(c.screen))
	if clamped.Empty() {
		log.Printf("OVERLAY: empty selection %+v, nothing to capture", final)
		return nil
	}
	if clamped != final {
		log.Printf("OVERLAY: selection %+v clamped to %+v", final, clamped)
	}

	img, err := c.capturer.Capture(clamped.X, clamped.Y, clamped.Width, clamped.Height)
	if err != nil {
		return err
	}
	canonical, err := c.converter.Convert(img)
	if err != nil {
		return err
	}
	if c.handoff == nil {
		return errors.New("no hand-off configured")
	}
	return c.handoff(canonical)
}

func (c *Controller) toOverlay(r screenshot.Region) screenshot.Region {
	r.X -= c.screen.Min.X
	r.Y -= c.screen.Min.Y
	return r
}
