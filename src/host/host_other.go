//go:build !windows

package host

import (
	"context"
	"image"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"

	"screen-capture-ocr/src/hotkey"
	"screen-capture-ocr/src/notification"
	"screen-capture-ocr/src/tray"
)

// Host is the fyne overlay: a full-screen window showing the composed frame,
// plus the toolkit's system tray menu.
type Host struct {
	opts      Options
	events    queue
	ready     chan struct{}
	readyOnce sync.Once

	app fyne.App
	win fyne.Window
	img *canvas.Image
	buf *image.RGBA // touched on the fyne goroutine only
}

// New creates the fyne application and the hidden overlay window. Call it
// from the main goroutine.
func New(opts Options) *Host {
	opts = opts.withDefaults()
	h := &Host{
		opts:   opts,
		events: newQueue(opts),
		ready:  make(chan struct{}),
		app:    app.NewWithID("io.github.screen-capture-ocr"),
		buf:    image.NewRGBA(image.Rect(0, 0, 1, 1)),
	}

	h.img = canvas.NewImageFromImage(h.buf)
	h.img.FillMode = canvas.ImageFillStretch
	h.img.ScaleMode = canvas.ImageScalePixels

	h.win = h.app.NewWindow(opts.Title)
	h.win.SetPadded(false)
	h.win.SetContent(newSurface(h))
	h.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			h.events.post(Event{Kind: KeyEscape})
		}
	})
	h.win.SetCloseIntercept(func() {
		h.events.post(Event{Kind: KeyEscape})
	})

	if desk, ok := h.app.(desktop.App); ok {
		desk.SetSystemTrayIcon(fyne.NewStaticResource("tray.png", tray.IconPNG()))
		desk.SetSystemTrayMenu(fyne.NewMenu(opts.Title,
			fyne.NewMenuItem("Capture", func() { h.events.post(Event{Kind: TrayCapture}) }),
		))
	}
	h.app.Lifecycle().SetOnStarted(func() {
		h.readyOnce.Do(func() { close(h.ready) })
	})
	return h
}

func (h *Host) Events() <-chan Event { return h.events.ch }

func (h *Host) Ready() <-chan struct{} { return h.ready }

func (h *Host) Notifier() notification.Notifier {
	return notification.NotifierFunc(func(title, body string) {
		log.Printf("NOTIFY: %s: %s", title, body)
		h.app.SendNotification(fyne.NewNotification(title, notification.Truncate(body)))
	})
}

// SetTooltip shows the status text as the window title; the toolkit tray has
// no tooltip.
func (h *Host) SetTooltip(text string) {
	fyne.Do(func() { h.win.SetTitle(text) })
}

// Run drives the toolkit until ctx is cancelled or the tray's Quit is chosen.
// It must be called on the main goroutine.
func (h *Host) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fyne.Do(h.app.Quit)
		case <-done:
		}
	}()
	h.app.Run()
	close(done)
	h.events.post(Event{Kind: TrayExit})
	log.Printf("HOST: toolkit loop finished")
	return nil
}

func (h *Host) Show() error {
	fyne.DoAndWait(func() {
		h.win.SetFullScreen(true)
		h.win.Show()
		h.win.RequestFocus()
	})
	return nil
}

// hideSettle covers the compositor frames between unmapping the window and
// the desktop being repainted underneath it.
const hideSettle = 50 * time.Millisecond

// Hide unmaps the overlay and waits for the desktop to show through.
func (h *Host) Hide() error {
	fyne.DoAndWait(h.win.Hide)
	time.Sleep(hideSettle)
	return nil
}

// Blit copies the dirty part of frame into the displayed image on the fyne
// goroutine, so frame may be reused as soon as Blit returns.
func (h *Host) Blit(frame *image.RGBA, dirty image.Rectangle) error {
	fyne.DoAndWait(func() {
		if h.buf.Bounds() != frame.Bounds() {
			h.buf = image.NewRGBA(frame.Bounds())
			h.img.Image = h.buf
			dirty = frame.Bounds()
		}
		draw.Draw(h.buf, dirty, frame, dirty.Min, draw.Src)
		h.img.Refresh()
	})
	return nil
}

// RegisterGlobalHotkey always fails here: there is no exclusive grab, so the
// hook listener takes over.
func (h *Host) RegisterGlobalHotkey(combo hotkey.Combo) bool {
	log.Printf("HOTKEY: exclusive registration of %s unsupported on this platform", combo)
	return false
}

func (h *Host) toPixels(pos fyne.Position) (int, int) {
	scale := h.win.Canvas().Scale()
	return int(pos.X * scale), int(pos.Y * scale)
}

// surface forwards pointer input on the overlay image to the event queue.
type surface struct {
	widget.BaseWidget
	host *Host
}

func newSurface(h *Host) *surface {
	s := &surface{host: h}
	s.ExtendBaseWidget(s)
	return s
}

func (s *surface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.host.img)
}

func (s *surface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	x, y := s.host.toPixels(ev.Position)
	s.host.events.postPointer(PointerDown, x, y)
}

func (s *surface) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	x, y := s.host.toPixels(ev.Position)
	s.host.events.postPointer(PointerUp, x, y)
}

func (s *surface) Dragged(ev *fyne.DragEvent) {
	x, y := s.host.toPixels(ev.Position)
	s.host.events.postPointer(PointerMove, x, y)
}

func (s *surface) DragEnd() {}
