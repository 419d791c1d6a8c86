//go:build windows

package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

type Config struct {
	Title     string
	Tooltip   string
	OnCapture func()
	OnExit    func()
}

// Tray wraps the process-wide systray. Run blocks; call it on its own
// goroutine (Windows) or the main thread.
type Tray struct {
	cfg   Config
	ready chan struct{}
	once  sync.Once
}

func New(cfg Config) *Tray {
	if cfg.Title == "" {
		cfg.Title = "Screen Capture OCR"
	}
	return &Tray{cfg: cfg, ready: make(chan struct{})}
}

// Run shows the icon and dispatches menu clicks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(Icon())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mCapture := systray.AddMenuItem("Capture", "Select a screen region")
	systray.AddSeparator()
	mExit := systray.AddMenuItem("Exit", "Quit the application")
	close(t.ready)
	log.Printf("TRAY: ready")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mExit.ClickedCh:
				if t.cfg.OnExit != nil {
					t.cfg.OnExit()
				}
				t.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	log.Printf("TRAY: exited")
}

// SetTooltip updates the hover text once the tray is up.
func (t *Tray) SetTooltip(text string) {
	select {
	case <-t.ready:
		systray.SetTooltip(text)
	default:
	}
}

// Quit removes the icon. It is safe to call more than once.
func (t *Tray) Quit() {
	t.once.Do(systray.Quit)
}
