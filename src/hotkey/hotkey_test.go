package hotkey

import (
	"context"
	"errors"
	"testing"
	"time"

	gohook "github.com/robotn/gohook"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Ctrl+Alt+Q", []string{"ctrl", "alt", "q"}},
		{"Ctrl+Shift+O", []string{"ctrl", "shift", "o"}},
		{"Alt+F4", []string{"alt", "f4"}},
		{"Ctrl+Win+S", []string{"ctrl", "cmd", "s"}},
		{"Super+Alt+T", []string{"cmd", "alt", "t"}},
		{"control + meta + PrtSc", []string{"ctrl", "cmd", "prtsc"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseHotkey(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseHotkey(%q) returned %v, expected %v", tt.input, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("parseHotkey(%q)[%d] = %q, expected %q", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestParseCombo(t *testing.T) {
	c, err := ParseCombo("Ctrl+Win+S")
	if err != nil {
		t.Fatalf("ParseCombo: %v", err)
	}
	if c.Key() != "s" {
		t.Errorf("Key() = %q, expected s", c.Key())
	}
	if mods := c.Modifiers(); len(mods) != 2 || mods[0] != Ctrl || mods[1] != Cmd {
		t.Errorf("Modifiers() = %v", mods)
	}
	if c.KeyCode() != rawcodesFor("s")[0] {
		t.Errorf("KeyCode() = %d", c.KeyCode())
	}

	for _, bad := range []string{"", "Ctrl+Alt", "Ctrl+A+B", "Ctrl+Nope", "Ctrl+F25"} {
		if _, err := ParseCombo(bad); err == nil {
			t.Errorf("ParseCombo(%q) succeeded, expected error", bad)
		}
	}
}

func TestRawcodesFor(t *testing.T) {
	if got := rawcodesFor("f12"); len(got) != 1 || got[0] != functionBase+11 {
		t.Errorf("f12 = %v", got)
	}
	if got := rawcodesFor("z"); len(got) != 1 || got[0] != letterBase+25 {
		t.Errorf("z = %v", got)
	}
	if got := rawcodesFor("7"); len(got) != 1 || got[0] != digitBase+7 {
		t.Errorf("7 = %v", got)
	}
	if got := rawcodesFor("esc"); len(got) != 1 || got[0] != namedRawcodes["escape"][0] {
		t.Errorf("esc = %v", got)
	}
	if got := rawcodesFor("ctrl"); len(got) != 2 {
		t.Errorf("ctrl = %v, expected left and right variants", got)
	}
	if got := rawcodesFor("unknown"); got != nil {
		t.Errorf("unknown = %v", got)
	}
}

func down(name string) gohook.Event {
	return gohook.Event{Kind: gohook.KeyHold, Rawcode: rawcodesFor(name)[0]}
}

func up(name string) gohook.Event {
	return gohook.Event{Kind: gohook.KeyUp, Rawcode: rawcodesFor(name)[0]}
}

func TestMatcherFiresOncePerChord(t *testing.T) {
	c, _ := ParseCombo("Ctrl+Win+S")
	m := newMatcher(c)

	seq := []gohook.Event{down("ctrl"), down("cmd"), down("s")}
	var fired int
	for _, ev := range seq {
		if sig, ok := m.feed(ev.Kind, ev.Rawcode); ok && sig == SignalToggle {
			fired++
		}
	}
	// Auto-repeat of the main key alone must not fire again.
	if _, ok := m.feed(gohook.KeyHold, rawcodesFor("s")[0]); ok {
		t.Errorf("repeat fired")
	}
	if fired != 1 {
		t.Errorf("fired %d times, expected 1", fired)
	}

	m.feed(gohook.KeyUp, rawcodesFor("s")[0])
	m.feed(gohook.KeyUp, rawcodesFor("cmd")[0])
	if _, ok := m.feed(gohook.KeyDown, rawcodesFor("ctrl")[0]); ok {
		t.Errorf("partial chord fired")
	}
}

func TestMatcherEscapeOncePerPress(t *testing.T) {
	c, _ := ParseCombo("Ctrl+Win+S")
	m := newMatcher(c)
	esc := rawcodesFor("escape")[0]

	if sig, ok := m.feed(gohook.KeyHold, esc); !ok || sig != SignalEscape {
		t.Fatalf("escape not reported")
	}
	if _, ok := m.feed(gohook.KeyDown, esc); ok {
		t.Errorf("typed event after press reported twice")
	}
	m.feed(gohook.KeyUp, esc)
	if _, ok := m.feed(gohook.KeyHold, esc); !ok {
		t.Errorf("second press not reported")
	}
}

type fakeSource struct {
	events chan gohook.Event
	ended  chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan gohook.Event, 16), ended: make(chan struct{})}
}

func (f *fakeSource) Start() chan gohook.Event { return f.events }
func (f *fakeSource) End()                     { close(f.ended) }

type fakeRegistrar struct {
	ok    bool
	calls int
}

func (r *fakeRegistrar) RegisterGlobalHotkey(Combo) bool {
	r.calls++
	return r.ok
}

func waitSignal(t *testing.T, ch <-chan Signal) Signal {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
		return 0
	}
}

func TestInstallFallsBackWhenRegistrationFails(t *testing.T) {
	c, _ := ParseCombo("Ctrl+Win+S")
	src := newFakeSource()
	reg := &fakeRegistrar{ok: false}

	m, err := Install(context.Background(), c, reg, src)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	defer m.Close()

	if m.Mode() != ModeFallback {
		t.Fatalf("mode = %s, expected fallback", m.Mode())
	}
	var regErr *RegistrationError
	if !errors.As(m.RegistrationErr(), &regErr) {
		t.Errorf("RegistrationErr() = %v", m.RegistrationErr())
	}

	src.events <- down("ctrl")
	src.events <- down("cmd")
	src.events <- down("s")
	if s := waitSignal(t, m.Signals()); s != SignalToggle {
		t.Errorf("got %s, expected toggle", s)
	}
	src.events <- down("escape")
	if s := waitSignal(t, m.Signals()); s != SignalEscape {
		t.Errorf("got %s, expected escape", s)
	}
}

func TestInstallRegisteredSkipsListener(t *testing.T) {
	c, _ := ParseCombo("Ctrl+Win+S")
	src := newFakeSource()
	reg := &fakeRegistrar{ok: true}

	m, err := Install(context.Background(), c, reg, src)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	defer m.Close()

	if m.Mode() != ModeRegistered || m.Signals() != nil {
		t.Errorf("mode = %s, signals = %v", m.Mode(), m.Signals())
	}
	if reg.calls != 1 {
		t.Errorf("registrar called %d times", reg.calls)
	}
}

func TestInstallIsProcessWideSingleton(t *testing.T) {
	c, _ := ParseCombo("Ctrl+Win+S")
	m, err := Install(context.Background(), c, &fakeRegistrar{ok: true}, nil)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := Install(context.Background(), c, &fakeRegistrar{ok: true}, nil); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("second Install err = %v, expected ErrAlreadyActive", err)
	}
	m.Close()

	m, err = Install(context.Background(), c, &fakeRegistrar{ok: true}, nil)
	if err != nil {
		t.Fatalf("Install after Close: %v", err)
	}
	m.Close()
}

func TestCloseStopsFallbackHook(t *testing.T) {
	c, _ := ParseCombo("Ctrl+Win+S")
	src := newFakeSource()
	m, err := Install(context.Background(), c, &fakeRegistrar{}, src)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	m.Close()

	select {
	case <-src.ended:
	case <-time.After(2 * time.Second):
		t.Fatal("hook not ended")
	}
	if _, ok := <-m.Signals(); ok {
		t.Errorf("signals channel still open")
	}
}
