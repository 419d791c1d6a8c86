//go:build windows

package hotkey

// Windows virtual-key codes, as reported by gohook and RegisterHotKey.
const (
	letterBase   = 0x41 // VK_A
	digitBase    = 0x30 // VK_0
	functionBase = 0x70 // VK_F1
)

var namedRawcodes = map[string][]uint16{
	Ctrl:          {0xA2, 0xA3}, // VK_LCONTROL, VK_RCONTROL
	Alt:           {0xA4, 0xA5}, // VK_LMENU, VK_RMENU
	Shift:         {0xA0, 0xA1}, // VK_LSHIFT, VK_RSHIFT
	Cmd:           {0x5B, 0x5C}, // VK_LWIN, VK_RWIN
	"space":       {0x20},
	"enter":       {0x0D},
	"escape":      {0x1B},
	"tab":         {0x09},
	"backspace":   {0x08},
	"delete":      {0x2E},
	"insert":      {0x2D},
	"home":        {0x24},
	"end":         {0x23},
	"pageup":      {0x21},
	"pagedown":    {0x22},
	"left":        {0x25},
	"up":          {0x26},
	"right":       {0x27},
	"down":        {0x28},
	"printscreen": {0x2C},
}
