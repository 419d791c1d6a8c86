//go:build windows

package notification

import (
	"log"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mbOK              = 0x00000000
	mbIconError       = 0x00000010
	mbIconInformation = 0x00000040
	mbSystemModal     = 0x00001000
	mbSetForeground   = 0x00010000
	mbTopmost         = 0x00040000
)

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procMessageBoxW = user32.NewProc("MessageBoxW")
)

func messageBox(title, message string, flags uintptr) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return
	}
	messagePtr, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return
	}
	procMessageBoxW.Call(0, uintptr(unsafe.Pointer(messagePtr)), uintptr(unsafe.Pointer(titlePtr)), flags)
}

// ShowBlockingError displays a modal error dialog and returns once dismissed.
func ShowBlockingError(title, message string) {
	log.Printf("ERROR: %s: %s", title, message)
	messageBox(title, message, mbOK|mbIconError|mbSystemModal)
}

// MessageBox shows one message box at a time on its own goroutine; requests
// arriving while one is open are dropped.
type MessageBox struct {
	queue chan [2]string
}

func NewMessageBox() *MessageBox {
	m := &MessageBox{queue: make(chan [2]string, 1)}
	go func() {
		for msg := range m.queue {
			messageBox(msg[0], msg[1], mbOK|mbIconInformation|mbTopmost|mbSetForeground)
		}
	}()
	return m
}

func (m *MessageBox) Notify(title, body string) {
	select {
	case m.queue <- [2]string{title, Truncate(body)}:
	default:
		log.Printf("NOTIFY: message box busy, dropping %q", title)
	}
}

// Default returns the platform notifier.
func Default() Notifier { return NewMessageBox() }
