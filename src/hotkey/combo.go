package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier names as produced by ParseCombo.
const (
	Ctrl  = "ctrl"
	Alt   = "alt"
	Shift = "shift"
	Cmd   = "cmd"
)

// Combo is a parsed hotkey such as "Ctrl+Win+S".
type Combo struct {
	Raw  string
	Keys []string
}

// ParseCombo normalizes a hotkey string. It needs exactly one non-modifier key
// and every key must map to a rawcode on this platform.
func ParseCombo(s string) (Combo, error) {
	keys := parseHotkey(s)
	c := Combo{Raw: s, Keys: keys}
	if c.Key() == "" {
		return Combo{}, fmt.Errorf("hotkey %q has no main key", s)
	}
	if n := len(keys) - len(c.Modifiers()); n != 1 {
		return Combo{}, fmt.Errorf("hotkey %q has %d main keys, want 1", s, n)
	}
	for _, k := range keys {
		if len(rawcodesFor(k)) == 0 {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", s, k)
		}
	}
	return c, nil
}

func (c Combo) String() string { return c.Raw }

// Modifiers returns the modifier keys in the order they were written.
func (c Combo) Modifiers() []string {
	var mods []string
	for _, k := range c.Keys {
		if isModifier(k) {
			mods = append(mods, k)
		}
	}
	return mods
}

// Key returns the non-modifier key.
func (c Combo) Key() string {
	for _, k := range c.Keys {
		if !isModifier(k) {
			return k
		}
	}
	return ""
}

// KeyCode returns the platform code of the main key.
func (c Combo) KeyCode() uint16 {
	codes := rawcodesFor(c.Key())
	if len(codes) == 0 {
		return 0
	}
	return codes[0]
}

func isModifier(k string) bool {
	switch k {
	case Ctrl, Alt, Shift, Cmd:
		return true
	}
	return false
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "ctrl", "control":
			keys = append(keys, Ctrl)
		case "win", "cmd", "super", "meta":
			keys = append(keys, Cmd)
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

var keyAliases = map[string]string{
	"return":   "enter",
	"esc":      "escape",
	"del":      "delete",
	"ins":      "insert",
	"pgup":     "pageup",
	"pgdn":     "pagedown",
	"prtsc":    "printscreen",
	"snapshot": "printscreen",
}

// rawcodesFor maps a key name to the hook rawcodes that identify it. Modifiers
// yield both left and right variants.
func rawcodesFor(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if alias, ok := keyAliases[keyName]; ok {
		keyName = alias
	}
	if codes, ok := namedRawcodes[keyName]; ok {
		return codes
	}
	if len(keyName) == 1 {
		switch c := keyName[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{letterBase + uint16(c-'a')}
		case c >= '0' && c <= '9':
			return []uint16{digitBase + uint16(c-'0')}
		}
	}
	if rest, ok := strings.CutPrefix(keyName, "f"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 24 {
			return []uint16{functionBase + uint16(n-1)}
		}
	}
	return nil
}
