// Package host owns the overlay window, the tray and the native event pump.
// Everything it observes is posted to Events as screen-pixel coordinates;
// the event loop goroutine does the rest.
package host

import (
	"image"
	"log"

	"screen-capture-ocr/src/screenshot"
)

// EventKind classifies a host event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	KeyEscape
	HotkeyPressed
	TrayCapture
	TrayExit
)

var kindNames = [...]string{
	PointerDown:   "PointerDown",
	PointerMove:   "PointerMove",
	PointerUp:     "PointerUp",
	KeyEscape:     "KeyEscape",
	HotkeyPressed: "HotkeyPressed",
	TrayCapture:   "TrayCapture",
	TrayExit:      "TrayExit",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Event is one input observed by the host. Point is set for pointer events only.
type Event struct {
	Kind  EventKind
	Point screenshot.Point
}

// Options configures a host.
type Options struct {
	Title   string
	Tooltip string
	// Origin is the screen position of the overlay's top-left pixel.
	Origin image.Point
	// Buffer is the capacity of the events channel.
	Buffer int
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Screen Capture OCR"
	}
	if o.Tooltip == "" {
		o.Tooltip = o.Title
	}
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	return o
}

// queue is the non-blocking event channel shared by the platform hosts. The
// native thread must never wait on the event loop, which may itself be
// waiting on the native thread.
type queue struct {
	ch     chan Event
	origin image.Point
}

func newQueue(opts Options) queue {
	return queue{ch: make(chan Event, opts.Buffer), origin: opts.Origin}
}

func (q queue) post(ev Event) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		if ev.Kind != PointerMove {
			log.Printf("HOST: event queue full, dropped %v", ev.Kind)
		}
		return false
	}
}

// postPointer converts window-relative pixels to screen pixels and posts.
func (q queue) postPointer(kind EventKind, x, y int) bool {
	return q.post(Event{Kind: kind, Point: screenshot.Point{X: x + q.origin.X, Y: y + q.origin.Y}})
}
