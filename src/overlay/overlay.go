// Package overlay composites the region-selection overlay: the frozen screen
// snapshot, a dimming mask with the selection carved out, the selection
// border and optional hints. Frames are built in a back buffer and handed to
// the window surface in one blit.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"screen-capture-ocr/src/screenshot"
)

// Style controls how the overlay looks.
type Style struct {
	MaskColor   color.NRGBA
	BorderColor color.NRGBA
	BorderWidth int
	ShowHints   bool
	HintColor   color.NRGBA
}

// DefaultStyle matches the classic snipping look: black mask at opacity 156,
// a one pixel near-opaque white border.
func DefaultStyle() Style {
	return Style{
		MaskColor:   color.NRGBA{A: 156},
		BorderColor: color.NRGBA{R: 255, G: 255, B: 255, A: 240},
		BorderWidth: 1,
		ShowHints:   true,
		HintColor:   color.NRGBA{R: 255, G: 255, A: 255},
	}
}

var hintLines = []string{
	"Drag to select a region",
	"ESC cancel",
}

// Surface is the visible target of a repaint. Blit copies the dirty part of
// frame to the screen; frame must not be retained after Blit returns.
type Surface interface {
	Blit(frame *image.RGBA, dirty image.Rectangle) error
}

// Renderer owns the background snapshot and the back buffer. It is driven
// from the event loop goroutine only.
type Renderer struct {
	style      Style
	bounds     image.Rectangle
	background *image.RGBA
	back       *image.RGBA
	selection  image.Rectangle
	selecting  bool
	dirty      image.Rectangle
}

// NewRenderer creates a renderer for an overlay of the given size.
func NewRenderer(bounds image.Rectangle, style Style) *Renderer {
	if style.BorderWidth < 0 {
		style.BorderWidth = 0
	}
	r := &Renderer{style: style}
	r.resize(bounds)
	return r
}

func (r *Renderer) resize(bounds image.Rectangle) {
	bounds = bounds.Sub(bounds.Min)
	if r.back == nil || r.back.Bounds() != bounds {
		r.back = image.NewRGBA(bounds)
	}
	r.bounds = bounds
	r.dirty = bounds
}

// Bounds returns the overlay rectangle, always anchored at the origin.
func (r *Renderer) Bounds() image.Rectangle { return r.bounds }

func (r *Renderer) Style() Style { return r.style }

// SetBackground replaces the snapshot and marks the whole surface dirty. The
// overlay is resized to the snapshot when they differ.
func (r *Renderer) SetBackground(bg *image.RGBA) {
	r.background = bg
	if bg != nil && bg.Bounds().Size() != r.bounds.Size() {
		log.Printf("OVERLAY: resizing back buffer from %v to %v", r.bounds.Size(), bg.Bounds().Size())
		r.resize(bg.Bounds())
		return
	}
	r.InvalidateAll()
}

// UpdateSelection moves the live selection. Only the previous and next
// rectangles, each grown by twice the border width, become dirty.
func (r *Renderer) UpdateSelection(next screenshot.Region) {
	nextRect := next.Rect()
	if r.selecting {
		r.invalidate(r.inflate(r.selection))
	}
	r.invalidate(r.inflate(nextRect))
	r.selection = nextRect
	r.selecting = true
}

// ClearSelection ends the live selection and dirties where it was drawn.
func (r *Renderer) ClearSelection() {
	if r.selecting {
		r.invalidate(r.inflate(r.selection))
	}
	r.selection = image.Rectangle{}
	r.selecting = false
}

// InvalidateAll marks the whole surface dirty.
func (r *Renderer) InvalidateAll() { r.dirty = r.bounds }

// Dirty returns the area the next Repaint will redraw.
func (r *Renderer) Dirty() image.Rectangle { return r.dirty }

func (r *Renderer) invalidate(rect image.Rectangle) {
	r.dirty = r.dirty.Union(rect.Intersect(r.bounds))
}

func (r *Renderer) inflate(rect image.Rectangle) image.Rectangle {
	return rect.Inset(-2 * r.style.BorderWidth)
}

// Repaint composes the dirty area in the back buffer and blits it once.
// Nothing is blitted when nothing is dirty.
func (r *Renderer) Repaint(s Surface) error {
	clip := r.dirty
	if clip.Empty() {
		return nil
	}
	r.compose(clip)
	if err := s.Blit(r.back, clip); err != nil {
		return fmt.Errorf("blit overlay frame: %w", err)
	}
	r.dirty = image.Rectangle{}
	return nil
}

// Frame returns the back buffer. Callers must treat it as read-only.
func (r *Renderer) Frame() *image.RGBA { return r.back }

func (r *Renderer) compose(clip image.Rectangle) {
	if r.background != nil {
		draw.Draw(r.back, clip, r.background, r.background.Bounds().Min.Add(clip.Min), draw.Src)
	} else {
		draw.Draw(r.back, clip, image.Black, image.Point{}, draw.Src)
	}

	var hole image.Rectangle
	if r.selecting {
		hole = r.selection.Inset(r.style.BorderWidth)
	}
	mask := image.NewUniform(r.style.MaskColor)
	bands := exclude(r.bounds, hole)
	for _, band := range bands {
		draw.Draw(r.back, band.Intersect(clip), mask, image.Point{}, draw.Over)
	}

	// Hints only ever land on the mask; the hole keeps the bare background.
	if r.style.ShowHints {
		for _, band := range bands {
			if area := band.Intersect(clip); !area.Empty() {
				r.drawHints(area)
			}
		}
	}

	if r.selecting && r.style.BorderWidth > 0 {
		border := image.NewUniform(r.style.BorderColor)
		for _, edge := range outline(r.selection, r.style.BorderWidth) {
			draw.Draw(r.back, edge.Intersect(clip), border, image.Point{}, draw.Over)
		}
	}
}

func (r *Renderer) drawHints(clip image.Rectangle) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  r.back.SubImage(clip).(*image.RGBA),
		Src:  image.NewUniform(r.style.HintColor),
		Face: face,
	}
	lineHeight := face.Metrics().Height.Ceil() + 9
	for i, line := range hintLines {
		d.Dot = fixed.P(16, 16+face.Ascent+i*lineHeight)
		d.DrawString(line)
	}
}

// exclude returns up to four bands covering outer minus hole.
func exclude(outer, hole image.Rectangle) []image.Rectangle {
	hole = hole.Intersect(outer)
	if hole.Empty() {
		return []image.Rectangle{outer}
	}
	return []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, hole.Min.Y),
		image.Rect(outer.Min.X, hole.Max.Y, outer.Max.X, outer.Max.Y),
		image.Rect(outer.Min.X, hole.Min.Y, hole.Min.X, hole.Max.Y),
		image.Rect(hole.Max.X, hole.Min.Y, outer.Max.X, hole.Max.Y),
	}
}

// outline returns the edges of a frame of thickness w lying inside rect.
func outline(rect image.Rectangle, w int) []image.Rectangle {
	if rect.Empty() {
		return nil
	}
	inner := rect.Inset(w)
	if inner.Empty() {
		return []image.Rectangle{rect}
	}
	return exclude(rect, inner)
}
