// Package clipboard hands recognized text or captured images to the system
// clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// ErrUnavailable means the clipboard could not be initialized on this system.
var ErrUnavailable = errors.New("clipboard unavailable")

// AccessError reports a failed clipboard write. It is meant for the user.
type AccessError struct {
	Op  string
	Err error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("Failed to open the clipboard (%s): %v", e.Op, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// Sink accepts UTF-8 text or a PNG image.
type Sink interface {
	WriteText(text string) error
	WriteImage(png []byte) error
}

// System writes through golang.design/x/clipboard. Writes are serialized.
type System struct {
	mu      sync.Mutex
	initErr error
	write   func(clipboard.Format, []byte) <-chan struct{}
}

// NewSystem initializes the platform clipboard. A failed init is not fatal:
// every later write reports it as an AccessError.
func NewSystem() *System {
	s := &System{write: clipboard.Write}
	if err := clipboard.Init(); err != nil {
		s.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s
}

// InitErr returns the initialization failure, if any.
func (s *System) InitErr() error { return s.initErr }

func (s *System) WriteText(text string) error {
	return s.put("text", clipboard.FmtText, []byte(text))
}

func (s *System) WriteImage(png []byte) error {
	return s.put("image", clipboard.FmtImage, png)
}

func (s *System) put(op string, format clipboard.Format, data []byte) (err error) {
	if s.initErr != nil {
		return &AccessError{Op: op, Err: s.initErr}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = &AccessError{Op: op, Err: fmt.Errorf("%v", r)}
		}
	}()
	if changed := s.write(format, data); changed == nil {
		return &AccessError{Op: op, Err: errors.New("write rejected")}
	}
	return nil
}
