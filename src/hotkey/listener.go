package hotkey

import (
	"context"
	"log"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Signal is what the fallback listener reports to the event loop.
type Signal int

const (
	SignalToggle Signal = iota
	SignalEscape
)

func (s Signal) String() string {
	if s == SignalEscape {
		return "escape"
	}
	return "toggle"
}

// EventSource is a low-level keyboard hook. gohook satisfies it through
// GohookSource; tests feed events directly.
type EventSource interface {
	Start() chan gohook.Event
	End()
}

// GohookSource installs the process-wide gohook keyboard hook.
type GohookSource struct{}

func (GohookSource) Start() chan gohook.Event { return gohook.Start() }
func (GohookSource) End()                     { gohook.End() }

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// matcher tracks which keys of a combo are held down.
type matcher struct {
	mu         sync.Mutex
	keys       []keyState
	escape     []uint16
	escapeDown bool
}

func newMatcher(c Combo) *matcher {
	m := &matcher{escape: rawcodesFor("escape")}
	for _, name := range c.Keys {
		m.keys = append(m.keys, keyState{name: name, rawcodes: rawcodesFor(name)})
	}
	return m
}

func matches(codes []uint16, rawcode uint16) bool {
	for _, c := range codes {
		if c == rawcode {
			return true
		}
	}
	return false
}

// feed applies one key event and reports a signal when the combo completes or
// Escape goes down.
func (m *matcher) feed(kind uint8, rawcode uint16) (Signal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case gohook.KeyDown, gohook.KeyHold:
		if matches(m.escape, rawcode) {
			// gohook reports both a press and a typed event per key.
			if m.escapeDown {
				return 0, false
			}
			m.escapeDown = true
			return SignalEscape, true
		}
		for i := range m.keys {
			if matches(m.keys[i].rawcodes, rawcode) {
				m.keys[i].pressed = true
			}
		}
		for i := range m.keys {
			if !m.keys[i].pressed {
				return 0, false
			}
		}
		// Reset so a held combo fires once.
		for i := range m.keys {
			m.keys[i].pressed = false
		}
		return SignalToggle, true
	case gohook.KeyUp:
		if matches(m.escape, rawcode) {
			m.escapeDown = false
		}
		for i := range m.keys {
			if matches(m.keys[i].rawcodes, rawcode) {
				m.keys[i].pressed = false
			}
		}
	}
	return 0, false
}

// Listener turns raw hook events into signals.
type Listener struct {
	combo   Combo
	source  EventSource
	matcher *matcher
	signals chan Signal
}

// NewListener prepares a listener for combo and Escape on source.
func NewListener(combo Combo, source EventSource) *Listener {
	return &Listener{
		combo:   combo,
		source:  source,
		matcher: newMatcher(combo),
		signals: make(chan Signal, 4),
	}
}

// Signals delivers toggle and escape signals. It is closed when Run returns.
func (l *Listener) Signals() <-chan Signal { return l.signals }

// Run consumes hook events until ctx is done or the source closes its channel.
func (l *Listener) Run(ctx context.Context) {
	defer close(l.signals)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("HOTKEY: PANIC in listener: %v", r)
		}
	}()

	events := l.source.Start()
	if events == nil {
		log.Printf("HOTKEY: hook returned nil channel")
		return
	}
	defer l.source.End()
	log.Printf("HOTKEY: fallback listener active for %s", l.combo)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				log.Printf("HOTKEY: hook channel closed")
				return
			}
			sig, fired := l.matcher.feed(ev.Kind, ev.Rawcode)
			if !fired {
				continue
			}
			log.Printf("HOTKEY: %s detected", sig)
			select {
			case l.signals <- sig:
			default:
				log.Printf("HOTKEY: signal queue full, dropping %s", sig)
			}
		}
	}
}
