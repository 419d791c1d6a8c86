//go:build !windows

package hotkey

// X11 keysyms, as reported by gohook on Linux.
const (
	letterBase   = 0x61   // XK_a
	digitBase    = 0x30   // XK_0
	functionBase = 0xFFBE // XK_F1
)

var namedRawcodes = map[string][]uint16{
	Ctrl:          {0xFFE3, 0xFFE4},
	Alt:           {0xFFE9, 0xFFEA},
	Shift:         {0xFFE1, 0xFFE2},
	Cmd:           {0xFFEB, 0xFFEC},
	"space":       {0x0020},
	"enter":       {0xFF0D},
	"escape":      {0xFF1B},
	"tab":         {0xFF09},
	"backspace":   {0xFF08},
	"delete":      {0xFFFF},
	"insert":      {0xFF63},
	"home":        {0xFF50},
	"end":         {0xFF57},
	"pageup":      {0xFF55},
	"pagedown":    {0xFF56},
	"left":        {0xFF51},
	"up":          {0xFF52},
	"right":       {0xFF53},
	"down":        {0xFF54},
	"printscreen": {0xFF61},
}
