package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Registrar performs exclusive system-wide hotkey registration. The window
// host implements it; registered presses arrive through the host's events.
type Registrar interface {
	RegisterGlobalHotkey(Combo) bool
}

// RegistrationError records a failed exclusive registration.
type RegistrationError struct {
	Combo Combo
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register global hotkey %s: already taken or unsupported", e.Combo)
}

// ErrAlreadyActive is returned when a hotkey manager is already installed in this process.
var ErrAlreadyActive = errors.New("hotkey manager already active")

// Mode tells how the combo is being watched.
type Mode int

const (
	ModeRegistered Mode = iota
	ModeFallback
)

func (m Mode) String() string {
	if m == ModeFallback {
		return "fallback"
	}
	return "registered"
}

var (
	installMu sync.Mutex
	installed bool
)

// Manager owns the process-wide hotkey: either the exclusive registration or
// the fallback hook listener, never both.
type Manager struct {
	mode     Mode
	listener *Listener
	cancel   context.CancelFunc
	done     chan struct{}
	regErr   error
}

// Install tries exclusive registration first and falls back to a low-level
// listener on source when that fails. Only one Manager may be installed.
func Install(ctx context.Context, combo Combo, registrar Registrar, source EventSource) (*Manager, error) {
	installMu.Lock()
	defer installMu.Unlock()
	if installed {
		return nil, ErrAlreadyActive
	}

	m := &Manager{done: make(chan struct{})}
	if registrar != nil && registrar.RegisterGlobalHotkey(combo) {
		log.Printf("HOTKEY: registered %s", combo)
		m.mode = ModeRegistered
		close(m.done)
		installed = true
		return m, nil
	}

	m.regErr = &RegistrationError{Combo: combo}
	log.Printf("HOTKEY: %v, installing fallback listener", m.regErr)
	if source == nil {
		source = GohookSource{}
	}
	lctx, cancel := context.WithCancel(ctx)
	m.mode = ModeFallback
	m.cancel = cancel
	m.listener = NewListener(combo, source)
	go func() {
		defer close(m.done)
		m.listener.Run(lctx)
	}()
	installed = true
	return m, nil
}

func (m *Manager) Mode() Mode { return m.mode }

// RegistrationErr returns the registration failure that caused fallback mode.
func (m *Manager) RegistrationErr() error { return m.regErr }

// Signals returns the fallback listener's signals, or nil in registered mode.
func (m *Manager) Signals() <-chan Signal {
	if m.listener == nil {
		return nil
	}
	return m.listener.Signals()
}

// Close stops the fallback listener and frees the process-wide slot.
func (m *Manager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
	installMu.Lock()
	installed = false
	installMu.Unlock()
}
