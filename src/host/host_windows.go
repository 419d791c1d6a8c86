//go:build windows

package host

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"screen-capture-ocr/src/hotkey"
	"screen-capture-ocr/src/notification"
	"screen-capture-ocr/src/tray"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	msgShow = win.WM_APP + 1 + iota
	msgHide
	msgRegisterHotkey
	msgQuit
)

const hotkeyID = 1

// RegisterHotKey modifier flags.
const (
	modAlt      = 0x0001
	modControl  = 0x0002
	modShift    = 0x0004
	modWin      = 0x0008
	modNoRepeat = 0x4000
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procRegisterHotKey   = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey = user32.NewProc("UnregisterHotKey")

	dwmapi       = windows.NewLazySystemDLL("dwmapi.dll")
	procDwmFlush = dwmapi.NewProc("DwmFlush")
)

// Host is the Windows overlay: a hidden topmost popup window painted from a
// 32-bit DIB section, plus the systray icon.
type Host struct {
	opts   Options
	events queue
	ready  chan struct{}
	tray   *tray.Tray
	notify notification.Notifier

	hwnd   win.HWND
	cursor win.HCURSOR

	mu      sync.Mutex // guards the back buffer below
	memDC   win.HDC
	dib     win.HBITMAP
	oldBmp  win.HGDIOBJ
	bits    []byte
	bufSize image.Point

	pending hotkey.Combo
}

// New creates the host. The window exists once Ready is closed.
func New(opts Options) *Host {
	opts = opts.withDefaults()
	h := &Host{
		opts:   opts,
		events: newQueue(opts),
		ready:  make(chan struct{}),
		notify: notification.NewMessageBox(),
	}
	h.tray = tray.New(tray.Config{
		Title:     opts.Title,
		Tooltip:   opts.Tooltip,
		OnCapture: func() { h.events.post(Event{Kind: TrayCapture}) },
		OnExit:    func() { h.events.post(Event{Kind: TrayExit}) },
	})
	return h
}

func (h *Host) Events() <-chan Event { return h.events.ch }

func (h *Host) Ready() <-chan struct{} { return h.ready }

func (h *Host) Notifier() notification.Notifier { return h.notify }

func (h *Host) SetTooltip(text string) { h.tray.SetTooltip(text) }

// Run creates the window and pumps its messages on a locked OS thread until
// ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	className, err := syscall.UTF16PtrFromString("ScreenCaptureOverlay")
	if err != nil {
		return err
	}
	title, err := syscall.UTF16PtrFromString(h.opts.Title)
	if err != nil {
		return err
	}
	h.cursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(h.wndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       h.cursor,
		LpszClassName: className,
	}
	if atom := win.RegisterClassEx(&wndClass); atom == 0 {
		return errors.New("failed to register window class")
	}
	defer win.UnregisterClass(className)

	h.hwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className, title,
		win.WS_POPUP,
		0, 0, 1, 1,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if h.hwnd == 0 {
		return errors.New("failed to create overlay window")
	}
	defer h.releaseBuffer()
	log.Printf("HOST: overlay window created, hwnd=%v", h.hwnd)

	go h.tray.Run()
	defer h.tray.Quit()

	close(h.ready)
	go func() {
		<-ctx.Done()
		win.PostMessage(h.hwnd, msgQuit, 0, 0)
	}()

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 { // WM_QUIT
			break
		}
		if ret == -1 {
			return errors.New("GetMessage failed")
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	log.Printf("HOST: message loop finished")
	return nil
}

// Show brings the overlay to the front, covering the back buffer's area.
func (h *Host) Show() error {
	if h.hwnd == 0 {
		return errors.New("overlay window not created")
	}
	win.PostMessage(h.hwnd, msgShow, 0, 0)
	return nil
}

// Hide removes the overlay from the screen. It returns only after the window
// thread has hidden the window and the compositor has presented the change.
func (h *Host) Hide() error {
	if h.hwnd == 0 {
		return errors.New("overlay window not created")
	}
	win.SendMessage(h.hwnd, msgHide, 0, 0)
	return nil
}

// Blit copies the dirty part of frame into the DIB section and schedules a
// WM_PAINT for that area.
func (h *Host) Blit(frame *image.RGBA, dirty image.Rectangle) error {
	if h.hwnd == 0 {
		return errors.New("overlay window not created")
	}
	size := frame.Bounds().Size()
	h.mu.Lock()
	if size != h.bufSize {
		if err := h.resizeBuffer(size); err != nil {
			h.mu.Unlock()
			return err
		}
		dirty = frame.Bounds()
	}
	dirty = dirty.Intersect(frame.Bounds())
	stride := size.X * 4
	for y := dirty.Min.Y; y < dirty.Max.Y; y++ {
		src := frame.Pix[frame.PixOffset(dirty.Min.X, y):frame.PixOffset(dirty.Max.X, y)]
		dst := h.bits[y*stride+dirty.Min.X*4:]
		for i := 0; i < len(src); i += 4 {
			dst[i] = src[i+2]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i]
			dst[i+3] = 0xFF
		}
	}
	h.mu.Unlock()

	rect := win.RECT{
		Left:   int32(dirty.Min.X),
		Top:    int32(dirty.Min.Y),
		Right:  int32(dirty.Max.X),
		Bottom: int32(dirty.Max.Y),
	}
	if !win.InvalidateRect(h.hwnd, &rect, false) {
		return errors.New("InvalidateRect failed")
	}
	return nil
}

// RegisterGlobalHotkey registers combo for the overlay window. The call is
// marshalled onto the window thread, which owns the registration.
func (h *Host) RegisterGlobalHotkey(combo hotkey.Combo) bool {
	if h.hwnd == 0 {
		return false
	}
	h.pending = combo
	return win.SendMessage(h.hwnd, msgRegisterHotkey, 0, 0) != 0
}

func (h *Host) resizeBuffer(size image.Point) error {
	h.releaseBufferLocked()
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}
	memDC := win.CreateCompatibleDC(0)
	if memDC == 0 {
		return errors.New("CreateCompatibleDC failed")
	}
	info := win.BITMAPINFOHEADER{
		BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
		BiWidth:       int32(size.X),
		BiHeight:      -int32(size.Y), // negative: top-down rows
		BiPlanes:      1,
		BiBitCount:    32,
		BiCompression: win.BI_RGB,
	}
	var bits unsafe.Pointer
	dib := win.CreateDIBSection(memDC, &info, win.DIB_RGB_COLORS, &bits, 0, 0)
	if dib == 0 {
		win.DeleteDC(memDC)
		return fmt.Errorf("CreateDIBSection %dx%d failed", size.X, size.Y)
	}
	h.memDC = memDC
	h.dib = dib
	h.oldBmp = win.SelectObject(memDC, win.HGDIOBJ(dib))
	h.bits = unsafe.Slice((*byte)(bits), size.X*size.Y*4)
	h.bufSize = size
	return nil
}

func (h *Host) releaseBuffer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releaseBufferLocked()
}

func (h *Host) releaseBufferLocked() {
	if h.memDC != 0 {
		win.SelectObject(h.memDC, h.oldBmp)
		win.DeleteDC(h.memDC)
	}
	if h.dib != 0 {
		win.DeleteObject(win.HGDIOBJ(h.dib))
	}
	h.memDC, h.dib, h.oldBmp, h.bits, h.bufSize = 0, 0, 0, nil, image.Point{}
}

func (h *Host) wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		h.events.postPointer(PointerDown, int(win.GET_X_LPARAM(lParam)), int(win.GET_Y_LPARAM(lParam)))
		return 0

	case win.WM_MOUSEMOVE:
		if wParam&win.MK_LBUTTON != 0 {
			h.events.postPointer(PointerMove, int(win.GET_X_LPARAM(lParam)), int(win.GET_Y_LPARAM(lParam)))
		}
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		h.events.postPointer(PointerUp, int(win.GET_X_LPARAM(lParam)), int(win.GET_Y_LPARAM(lParam)))
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			h.events.post(Event{Kind: KeyEscape})
		}
		return 0

	case win.WM_HOTKEY:
		if wParam == hotkeyID {
			h.events.post(Event{Kind: HotkeyPressed})
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		h.mu.Lock()
		if h.memDC != 0 {
			r := ps.RcPaint
			win.BitBlt(hdc, r.Left, r.Top, r.Right-r.Left, r.Bottom-r.Top, h.memDC, r.Left, r.Top, win.SRCCOPY)
		}
		h.mu.Unlock()
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_ERASEBKGND:
		return 1

	case win.WM_SETCURSOR:
		if h.cursor != 0 {
			win.SetCursor(h.cursor)
		}
		return 1

	case win.WM_NCHITTEST:
		return uintptr(win.HTCLIENT)

	case msgShow:
		h.mu.Lock()
		size := h.bufSize
		h.mu.Unlock()
		win.SetWindowPos(hwnd, win.HWND_TOPMOST,
			int32(h.opts.Origin.X), int32(h.opts.Origin.Y), int32(size.X), int32(size.Y),
			win.SWP_SHOWWINDOW)
		win.SetForegroundWindow(hwnd)
		win.SetFocus(hwnd)
		win.InvalidateRect(hwnd, nil, false)
		return 0

	case msgHide:
		win.ReleaseCapture()
		win.ShowWindow(hwnd, win.SW_HIDE)
		flushCompositor()
		return 0

	case msgRegisterHotkey:
		if h.registerHotkey(hwnd, h.pending) {
			return 1
		}
		return 0

	case msgQuit:
		win.DestroyWindow(hwnd)
		return 0

	case win.WM_DESTROY:
		procUnregisterHotKey.Call(uintptr(hwnd), hotkeyID)
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (h *Host) registerHotkey(hwnd win.HWND, combo hotkey.Combo) bool {
	ret, _, err := procRegisterHotKey.Call(uintptr(hwnd), hotkeyID, uintptr(modFlags(combo)), uintptr(combo.KeyCode()))
	if ret == 0 {
		log.Printf("HOTKEY: RegisterHotKey(%s) failed: %v", combo, err)
		return false
	}
	return true
}

func modFlags(combo hotkey.Combo) uint32 {
	flags := uint32(modNoRepeat)
	for _, m := range combo.Modifiers() {
		switch m {
		case hotkey.Ctrl:
			flags |= modControl
		case hotkey.Alt:
			flags |= modAlt
		case hotkey.Shift:
			flags |= modShift
		case hotkey.Cmd:
			flags |= modWin
		}
	}
	return flags
}

// flushCompositor blocks until DWM has presented the next frame. Without DWM
// (or on failure) the hide is already on screen once ShowWindow returns.
func flushCompositor() {
	if err := procDwmFlush.Find(); err != nil {
		return
	}
	if hr, _, _ := procDwmFlush.Call(); hr != 0 {
		log.Printf("HOST: DwmFlush failed: 0x%08x", uint32(hr))
	}
}
