// Package eventloop is the single goroutine that owns the overlay controller.
// Hosts, hotkey listeners and workers only post into its channels.
package eventloop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"screen-capture-ocr/src/clipboard"
	"screen-capture-ocr/src/controller"
	"screen-capture-ocr/src/host"
	"screen-capture-ocr/src/hotkey"
	"screen-capture-ocr/src/logutil"
	"screen-capture-ocr/src/notification"
	"screen-capture-ocr/src/ocr"
	"screen-capture-ocr/src/overlay"
	"screen-capture-ocr/src/pixelformat"
	"screen-capture-ocr/src/screenshot"
	"screen-capture-ocr/src/worker"
)

// ErrBusy is returned by the hand-off while a recognition job is in flight.
var ErrBusy = errors.New("Busy, please retry")

// escapeDebounce swallows the second Escape when both the overlay window and
// the fallback hook report the same key press.
const escapeDebounce = 300 * time.Millisecond

// Host is the window side of the loop.
type Host interface {
	controller.Window
	Events() <-chan host.Event
	SetTooltip(text string)
}

// Deps are the collaborators the loop drives.
type Deps struct {
	Host       Host
	Capturer   controller.Capturer
	Converter  controller.Converter
	Recognizer ocr.Recognizer
	Clipboard  clipboard.Sink
	Notifier   notification.Notifier
}

// Options tune the loop. Zero values fall back to defaults.
type Options struct {
	Style    overlay.Style
	Deadline time.Duration
	// CopyImage puts the selected image on the clipboard instead of recognizing it.
	CopyImage bool
	// DebugDir receives a PNG of every handed-off image when set.
	DebugDir string
	// RunOnce shows the overlay immediately and stops after one selection.
	RunOnce        bool
	DefaultTooltip string
}

// Loop is the single-threaded coordinator for the capture pipeline.
type Loop struct {
	ctrl     *controller.Controller
	host     Host
	pool     *worker.Pool
	clip     clipboard.Sink
	notify   notification.Notifier
	hotkeyCh <-chan hotkey.Signal
	results  chan result
	opts     Options

	ctx        context.Context
	busy       bool
	cancelJob  context.CancelFunc
	lastCancel time.Time
	now        func() time.Time
}

type result struct {
	text   string
	err    error
	cancel context.CancelFunc
}

// New creates a new event loop. If opts.Deadline <= 0, a 20s deadline is used.
func New(deps Deps, opts Options) *Loop {
	if opts.Deadline <= 0 {
		opts.Deadline = 20 * time.Second
	}
	if opts.DefaultTooltip == "" {
		opts.DefaultTooltip = "Screen Capture OCR"
	}
	if opts.Style == (overlay.Style{}) {
		opts.Style = overlay.DefaultStyle()
	}
	notify := deps.Notifier
	if notify == nil {
		notify = notification.Log{}
	}
	l := &Loop{
		host:    deps.Host,
		pool:    worker.New(0, deps.Recognizer),
		clip:    deps.Clipboard,
		notify:  notify,
		results: make(chan result, 1),
		opts:    opts,
		ctx:     context.Background(),
		now:     time.Now,
	}
	l.ctrl = controller.New(deps.Capturer, deps.Converter, deps.Host, opts.Style, l.handoff)
	return l
}

// SetHotkeySignals feeds fallback-listener signals into the loop. Call before Run.
func (l *Loop) SetHotkeySignals(ch <-chan hotkey.Signal) { l.hotkeyCh = ch }

// Controller exposes the overlay controller owned by the loop.
func (l *Loop) Controller() *controller.Controller { return l.ctrl }

// Deadline returns the configured OCR deadline for this loop.
func (l *Loop) Deadline() time.Duration { return l.opts.Deadline }

// Run processes events until ctx is cancelled, the tray asks to exit, or a
// run-once selection is complete.
func (l *Loop) Run(ctx context.Context) error {
	l.ctx = ctx
	defer l.pool.Close()
	defer l.cancelInFlight()

	if l.opts.RunOnce {
		if err := l.ctrl.Toggle(); err != nil {
			return fmt.Errorf("show overlay: %w", err)
		}
	}

	events := l.host.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == host.TrayExit {
				log.Printf("LOOP: exit requested")
				return nil
			}
			l.handleEvent(ev)
		case sig, ok := <-l.hotkeyCh:
			if !ok {
				l.hotkeyCh = nil
				continue
			}
			l.handleSignal(sig)
		case res := <-l.results:
			l.handleResult(res)
		}
		if l.runOnceDone() {
			log.Printf("LOOP: run-once complete")
			return nil
		}
	}
}

func (l *Loop) runOnceDone() bool {
	return l.opts.RunOnce && l.ctrl.State() == controller.Hidden && !l.busy
}

func (l *Loop) handleEvent(ev host.Event) {
	var err error
	switch ev.Kind {
	case host.HotkeyPressed, host.TrayCapture:
		err = l.ctrl.Toggle()
	case host.KeyEscape:
		l.escape()
	case host.PointerDown:
		err = l.ctrl.PointerDown(ev.Point)
	case host.PointerMove:
		err = l.ctrl.PointerMove(ev.Point)
	case host.PointerUp:
		err = l.ctrl.PointerUp(ev.Point)
	}
	l.report(ev.Kind.String(), err)
}

func (l *Loop) handleSignal(sig hotkey.Signal) {
	switch sig {
	case hotkey.SignalToggle:
		l.report("hotkey", l.ctrl.Toggle())
	case hotkey.SignalEscape:
		l.escape()
	}
}

// escape cancels the overlay when it is up, otherwise the job in flight.
func (l *Loop) escape() {
	now := l.now()
	if l.ctrl.State() == controller.Active {
		l.ctrl.Cancel()
		l.lastCancel = now
		return
	}
	if now.Sub(l.lastCancel) < escapeDebounce {
		return
	}
	if l.busy && l.cancelJob != nil {
		log.Printf("LOOP: cancelling recognition in flight")
		l.cancelJob()
		l.lastCancel = now
	}
}

// handoff runs on the loop goroutine, called by the controller with the
// finished selection.
func (l *Loop) handoff(img *pixelformat.CanonicalImage) error {
	l.saveDebugImage(img)

	if l.opts.CopyImage {
		var buf bytes.Buffer
		if err := img.EncodePNG(&buf); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		if err := l.clip.WriteImage(buf.Bytes()); err != nil {
			return err
		}
		log.Printf("LOOP: copied %dx%d image to clipboard", img.Width(), img.Height())
		return nil
	}

	if l.busy {
		return ErrBusy
	}
	jobCtx, cancel := context.WithTimeout(l.ctx, l.opts.Deadline)
	l.setBusy(true)
	submitted := l.pool.Submit(jobCtx, img, func(text string, err error) {
		l.results <- result{text: text, err: err, cancel: cancel}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		return ErrBusy
	}
	l.cancelJob = cancel
	return nil
}

func (l *Loop) handleResult(res result) {
	defer func() {
		l.setBusy(false)
		l.cancelJob = nil
		if res.cancel != nil {
			res.cancel()
		}
	}()

	switch {
	case errors.Is(res.err, context.Canceled):
		log.Printf("LOOP: recognition cancelled")
		return
	case errors.Is(res.err, context.DeadlineExceeded):
		l.notify.Notify("OCR timed out", fmt.Sprintf("No result within %s", l.opts.Deadline))
		return
	case res.err != nil:
		log.Printf("LOOP: recognition failed: %v", res.err)
		l.notify.Notify("OCR failed", res.err.Error())
		return
	case res.text == "":
		l.notify.Notify("Screen Capture OCR", "No text found")
		return
	}

	log.Printf("LOOP: recognized %d chars: %s", len(res.text), logutil.Sanitize(res.text))
	if err := l.clip.WriteText(res.text); err != nil {
		l.report("clipboard", err)
		return
	}
	l.notify.Notify("Text copied", res.text)
}

// report logs err and tells the user about the failures they can act on.
func (l *Loop) report(op string, err error) {
	if err == nil {
		return
	}
	log.Printf("LOOP: %s: %v", op, err)

	var (
		accessErr  *clipboard.AccessError
		captureErr *screenshot.CaptureError
		convErr    *pixelformat.ConversionError
	)
	switch {
	case errors.As(err, &accessErr):
		l.notify.Notify("Clipboard error", accessErr.Error())
	case errors.Is(err, ErrBusy):
		l.notify.Notify("Screen Capture OCR", ErrBusy.Error())
	case errors.As(err, &captureErr):
		l.notify.Notify("Capture failed", captureErr.Error())
	case errors.As(err, &convErr):
		l.notify.Notify("Capture failed", convErr.Error())
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		l.host.SetTooltip("Screen Capture OCR: processing...")
	} else {
		l.host.SetTooltip(l.opts.DefaultTooltip)
	}
}

func (l *Loop) cancelInFlight() {
	if l.cancelJob != nil {
		l.cancelJob()
	}
}

func (l *Loop) saveDebugImage(img *pixelformat.CanonicalImage) {
	if l.opts.DebugDir == "" {
		return
	}
	if err := os.MkdirAll(l.opts.DebugDir, 0o755); err != nil {
		log.Printf("LOOP: debug dir: %v", err)
		return
	}
	name := filepath.Join(l.opts.DebugDir, fmt.Sprintf("capture_%s.png", l.now().Format("20060102_150405.000")))
	f, err := os.Create(name)
	if err != nil {
		log.Printf("LOOP: debug image: %v", err)
		return
	}
	defer f.Close()
	if err := img.EncodePNG(f); err != nil {
		log.Printf("LOOP: debug image: %v", err)
		return
	}
	log.Printf("LOOP: saved debug image %s", name)
}
