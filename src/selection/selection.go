// Package selection tracks a rubber-band rectangle driven by pointer events.
package selection

import (
	"errors"
	"fmt"

	"screen-capture-ocr/src/screenshot"
)

// State of the tracker.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Dragging:
		return "Dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type event int

const (
	eventBegin event = iota
	eventUpdate
	eventEnd
)

func (e event) String() string {
	return [...]string{"Begin", "Update", "End"}[e]
}

var transitions = map[State]map[event]State{
	Idle:     {eventBegin: Dragging},
	Dragging: {eventUpdate: Dragging, eventEnd: Idle},
}

// ErrInvalidTransition is returned for events the current state does not accept.
var ErrInvalidTransition = errors.New("invalid selection transition")

// Tracker owns the anchor and current corner of a drag. The zero value is Idle.
// It is not safe for concurrent use; the event loop is its only caller.
type Tracker struct {
	state  State
	anchor screenshot.Point
	corner screenshot.Point
}

func (t *Tracker) transition(e event) error {
	next, ok := transitions[t.state][e]
	if !ok {
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, e, t.state)
	}
	t.state = next
	return nil
}

// Begin starts a drag at p. The rectangle is zero-sized until Update.
func (t *Tracker) Begin(p screenshot.Point) error {
	if err := t.transition(eventBegin); err != nil {
		return err
	}
	t.anchor, t.corner = p, p
	return nil
}

// Update moves the free corner and returns the normalized rectangle.
func (t *Tracker) Update(p screenshot.Point) (screenshot.Region, error) {
	if err := t.transition(eventUpdate); err != nil {
		return screenshot.Region{}, err
	}
	t.corner = p
	return Normalize(t.anchor, t.corner), nil
}

// End finishes the drag and returns the final rectangle, which may be empty.
func (t *Tracker) End() (screenshot.Region, error) {
	if err := t.transition(eventEnd); err != nil {
		return screenshot.Region{}, err
	}
	r := Normalize(t.anchor, t.corner)
	t.anchor, t.corner = screenshot.Point{}, screenshot.Point{}
	return r, nil
}

// Reset abandons any drag.
func (t *Tracker) Reset() {
	*t = Tracker{}
}

func (t *Tracker) State() State   { return t.state }
func (t *Tracker) Dragging() bool { return t.state == Dragging }

// Rect returns the current rectangle, or the zero Region when Idle.
func (t *Tracker) Rect() screenshot.Region {
	if t.state != Dragging {
		return screenshot.Region{}
	}
	return Normalize(t.anchor, t.corner)
}

// Normalize returns the rectangle spanned by two corners with non-negative size.
func Normalize(a, b screenshot.Point) screenshot.Region {
	return screenshot.Region{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  abs(a.X - b.X),
		Height: abs(a.Y - b.Y),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
