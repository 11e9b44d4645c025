package nativeselection

import (
	"errors"
	"fmt"
	"testing"
)

type fakeReader struct {
	text  string
	err   error
	calls int
}

func (f *fakeReader) ReadPrimary() (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSource struct {
	fakeReader
	supported  bool
	supportErr   error
	supportCalls int
}

func (f *fakeSource) PrimarySupported() (bool, error) {
	f.supportCalls++
	return f.supported, f.supportErr
}

func newSessionStrategy(env *Environment, x11 *fakeReader, wayland *fakeSource) *sessionStrategy {
	return &sessionStrategy{env: env, x11: x11, wayland: wayland}
}

func TestSessionX11(t *testing.T) {
	x11 := &fakeReader{text: "from x11"}
	wayland := &fakeSource{}
	s := newSessionStrategy(NewEnvironment(SessionX11, ""), x11, wayland)

	text, err := s.Retrieve()
	if err != nil || text != "from x11" {
		t.Fatalf("Expected %q, got %q, %v", "from x11", text, err)
	}
	if wayland.calls != 0 || wayland.supportCalls != 0 {
		t.Fatal("Wayland must not run in an X11 session")
	}
}

func TestSessionX11Unresponsive(t *testing.T) {
	x11 := &fakeReader{err: fmt.Errorf("%w: owner did not answer", ErrNotFound)}
	s := newSessionStrategy(NewEnvironment(SessionX11, ""), x11, &fakeSource{})

	text, err := s.Retrieve()
	if err != nil || text != "" {
		t.Fatalf("Expected empty result, got %q, %v", text, err)
	}
}

func TestSessionX11Unavailable(t *testing.T) {
	x11 := &fakeReader{err: ErrUnavailable}
	s := newSessionStrategy(NewEnvironment(SessionX11, ""), x11, &fakeSource{})

	if _, err := s.Retrieve(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
}

func TestSessionWayland(t *testing.T) {
	x11 := &fakeReader{}
	wayland := &fakeSource{supported: true, fakeReader: fakeReader{text: "from wayland"}}
	env := NewEnvironment(SessionWayland, "")
	s := newSessionStrategy(env, x11, wayland)

	text, err := s.Retrieve()
	if err != nil || text != "from wayland" {
		t.Fatalf("Expected %q, got %q, %v", "from wayland", text, err)
	}
	if x11.calls != 0 {
		t.Fatal("X11 must not run when Wayland answered")
	}
	if env.Downgraded() {
		t.Fatal("Environment must not be downgraded")
	}
}

func TestSessionWaylandNothingSelected(t *testing.T) {
	x11 := &fakeReader{text: "stale"}
	wayland := &fakeSource{supported: true, fakeReader: fakeReader{err: fmt.Errorf("%w: no selection", ErrNotFound)}}
	env := NewEnvironment(SessionWayland, "")
	s := newSessionStrategy(env, x11, wayland)

	text, err := s.Retrieve()
	if err != nil || text != "" {
		t.Fatalf("Expected empty result, got %q, %v", text, err)
	}
	if x11.calls != 0 || env.Downgraded() {
		t.Fatal("An empty Wayland selection is authoritative")
	}
}

func TestSessionWaylandDowngrade(t *testing.T) {
	x11 := &fakeReader{text: "from x11"}
	wayland := &fakeSource{supported: false}
	env := NewEnvironment(SessionWayland, "wayland")
	s := newSessionStrategy(env, x11, wayland)

	for i := 0; i < 3; i++ {
		text, err := s.Retrieve()
		if err != nil || text != "from x11" {
			t.Fatalf("Retrieve %d: expected %q, got %q, %v", i, "from x11", text, err)
		}
	}

	if wayland.supportCalls != 1 {
		t.Fatalf("Expected a single support check, got %d", wayland.supportCalls)
	}
	if !env.Downgraded() {
		t.Fatal("Expected the environment to be downgraded")
	}
	if st, ok := env.SessionType(); !ok || st != SessionX11 {
		t.Fatalf("Expected session type %q, got %q (%v)", SessionX11, st, ok)
	}
	if b := env.Backend(); b != SessionX11 {
		t.Fatalf("Expected backend %q, got %q", SessionX11, b)
	}
}

func TestSessionWaylandSupportCheckError(t *testing.T) {
	x11 := &fakeReader{text: "from x11"}
	wayland := &fakeSource{supportErr: ErrUnavailable}
	env := NewEnvironment(SessionWayland, "")
	s := newSessionStrategy(env, x11, wayland)

	text, err := s.Retrieve()
	if err != nil || text != "from x11" {
		t.Fatalf("Expected %q, got %q, %v", "from x11", text, err)
	}
	if !env.Downgraded() {
		t.Fatal("Expected the environment to be downgraded")
	}
}

func TestSessionWaylandReadFailsFallsBackOnce(t *testing.T) {
	x11 := &fakeReader{text: "from x11"}
	wayland := &fakeSource{supported: true, fakeReader: fakeReader{err: fmt.Errorf("%w: wl-paste crashed", ErrUnavailable)}}
	env := NewEnvironment(SessionWayland, "")
	s := newSessionStrategy(env, x11, wayland)

	text, err := s.Retrieve()
	if err != nil || text != "from x11" {
		t.Fatalf("Expected %q, got %q, %v", "from x11", text, err)
	}
	if env.Downgraded() {
		t.Fatal("A read failure must not downgrade the environment")
	}

	// The next call tries Wayland again.
	s.Retrieve()
	if wayland.calls != 2 {
		t.Fatalf("Expected Wayland to be read twice, got %d", wayland.calls)
	}
}

func TestSessionWaylandAndX11Fail(t *testing.T) {
	waylandErr := fmt.Errorf("%w: wl-paste crashed", ErrUnavailable)
	x11Err := fmt.Errorf("%w: no display", ErrUnavailable)
	s := newSessionStrategy(
		NewEnvironment(SessionWayland, ""),
		&fakeReader{err: x11Err},
		&fakeSource{supported: true, fakeReader: fakeReader{err: waylandErr}},
	)

	_, err := s.Retrieve()
	if !errors.Is(err, waylandErr) || !errors.Is(err, x11Err) {
		t.Fatalf("Expected both errors, got %v", err)
	}
}

func TestSessionUnknownType(t *testing.T) {
	x11 := &fakeReader{text: "x"}
	wayland := &fakeSource{supported: true}
	s := newSessionStrategy(NewEnvironment("mir", ""), x11, wayland)

	if _, err := s.Retrieve(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
	if x11.calls != 0 || wayland.calls != 0 || wayland.supportCalls != 0 {
		t.Fatal("No protocol must run for an unknown session type")
	}
	if got := New(WithStrategies(s)).Text(); got != "" {
		t.Fatalf("Expected empty text, got %q", got)
	}
}

func TestSessionUnset(t *testing.T) {
	s := newSessionStrategy(&Environment{}, &fakeReader{text: "x"}, &fakeSource{})
	if _, err := s.Retrieve(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
}

func TestEnvironmentDowngradeIdempotent(t *testing.T) {
	env := NewEnvironment(SessionWayland, "wayland")
	env.Downgrade()
	st1, ok1 := env.SessionType()
	b1 := env.Backend()

	env.Downgrade()
	st2, ok2 := env.SessionType()
	b2 := env.Backend()

	if st1 != st2 || ok1 != ok2 || b1 != b2 {
		t.Fatalf("Second downgrade changed state: %q/%v/%q -> %q/%v/%q", st1, ok1, b1, st2, ok2, b2)
	}
}

func TestEnvironmentFromProcess(t *testing.T) {
	t.Setenv(SessionTypeVar, SessionWayland)
	t.Setenv(BackendVar, "x11")

	env := EnvironmentFromProcess()
	if st, ok := env.SessionType(); !ok || st != SessionWayland {
		t.Fatalf("Expected %q, got %q (%v)", SessionWayland, st, ok)
	}
	if b := env.Backend(); b != "x11" {
		t.Fatalf("Expected backend x11, got %q", b)
	}
	if env.Downgraded() {
		t.Fatal("A fresh environment is not downgraded")
	}
}

func TestEnvironmentFromProcessReadsEachCall(t *testing.T) {
	t.Setenv(SessionTypeVar, SessionX11)
	env := EnvironmentFromProcess()

	t.Setenv(SessionTypeVar, SessionWayland)
	t.Setenv(BackendVar, "wayland")
	if st, ok := env.SessionType(); !ok || st != SessionWayland {
		t.Fatalf("Expected the changed session type %q, got %q (%v)", SessionWayland, st, ok)
	}
	if b := env.Backend(); b != "wayland" {
		t.Fatalf("Expected backend wayland, got %q", b)
	}

	// After a downgrade the process environment is no longer consulted.
	env.Downgrade()
	if st, _ := env.SessionType(); st != SessionX11 {
		t.Fatalf("Expected %q after downgrade, got %q", SessionX11, st)
	}
	if b := env.Backend(); b != SessionX11 {
		t.Fatalf("Expected backend %q after downgrade, got %q", SessionX11, b)
	}
}

func TestDecodeText(t *testing.T) {
	tests := map[string]struct {
		in   []byte
		want string
	}{
		"ascii":     {[]byte("hello"), "hello"},
		"utf-8":     {[]byte("héllo ✓"), "héllo ✓"},
		"invalid":   {[]byte{'a', 0xff, 'b'}, "a�b"},
		"truncated": {[]byte{'a', 0xe2, 0x9c}, "a�"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := decodeText(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
