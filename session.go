// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Session types.
const (
	SessionX11     = "x11"
	SessionWayland = "wayland"
)

// Environment variables read by EnvironmentFromProcess.
const (
	SessionTypeVar = "XDG_SESSION_TYPE"
	BackendVar     = "GDK_BACKEND"
)

// Environment holds the session signals used to pick a Linux selection
// protocol. It changes at most once, when a Wayland compositor turns out not
// to support the primary selection and the environment is downgraded to X11.
// An Environment is safe for concurrent use.
type Environment struct {
	mu          sync.Mutex
	lookup      func(string) (string, bool)
	sessionType string
	hasSession  bool
	backend     string
	downgraded  bool
}

// NewEnvironment returns an Environment with the given session type and
// backend override.
func NewEnvironment(sessionType, backend string) *Environment {
	return &Environment{sessionType: sessionType, hasSession: true, backend: backend}
}

// EnvironmentFromProcess returns an Environment that reads XDG_SESSION_TYPE
// and GDK_BACKEND on every call until it is downgraded. An unset
// XDG_SESSION_TYPE makes the session type unreadable.
func EnvironmentFromProcess() *Environment {
	return &Environment{lookup: os.LookupEnv}
}

// SessionType returns the session type and whether it could be read.
func (e *Environment) SessionType() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lookup != nil && !e.downgraded {
		return e.lookup(SessionTypeVar)
	}
	return e.sessionType, e.hasSession
}

// Backend returns the toolkit backend override.
func (e *Environment) Backend() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lookup != nil && !e.downgraded {
		backend, _ := e.lookup(BackendVar)
		return backend
	}
	return e.backend
}

// Downgraded reports whether Downgrade was called.
func (e *Environment) Downgraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.downgraded
}

// Downgrade switches the session type and backend override to X11 for the
// rest of the Environment's lifetime. Calling it again has no effect.
func (e *Environment) Downgrade() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionType = SessionX11
	e.hasSession = true
	e.backend = SessionX11
	e.downgraded = true
}

// primaryReader reads the primary selection. It returns ErrNotFound when
// nothing is selected or the owner did not answer in time.
type primaryReader interface {
	ReadPrimary() (string, error)
}

// primarySource is a primaryReader that can also tell whether the compositor
// supports the primary selection at all.
type primarySource interface {
	primaryReader
	PrimarySupported() (bool, error)
}

// sessionStrategy reads the primary selection with the protocol matching the
// session type. Exactly one branch runs per call.
type sessionStrategy struct {
	env     *Environment
	x11     primaryReader
	wayland primarySource
	logger  *slog.Logger
}

func (s *sessionStrategy) Name() string { return "primary-selection" }

func (s *sessionStrategy) Retrieve() (string, error) {
	sessionType, ok := s.env.SessionType()
	if !ok {
		return "", fmt.Errorf("%w: %s is not set", ErrUnavailable, SessionTypeVar)
	}

	switch sessionType {
	case SessionX11:
		return s.readX11()
	case SessionWayland:
		return s.readWayland()
	default:
		return "", fmt.Errorf("%w: unknown session type %q", ErrUnavailable, sessionType)
	}
}

func (s *sessionStrategy) readX11() (string, error) {
	text, err := s.x11.ReadPrimary()
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return text, err
}

// readWayland relies on an X compatibility layer when it downgrades.
func (s *sessionStrategy) readWayland() (string, error) {
	log := logger(s.logger)

	supported, err := s.wayland.PrimarySupported()
	if err != nil || !supported {
		log.Debug("wayland primary selection unsupported, downgrading to x11", "err", err)
		s.env.Downgrade()
		return s.readX11()
	}

	text, err := s.wayland.ReadPrimary()
	switch {
	case err == nil:
		return text, nil
	case errors.Is(err, ErrNotFound):
		return "", nil
	}

	// The compositor supports the primary selection but reading it failed.
	// Try X11 for this call only; the environment is left as it is.
	log.Debug("reading wayland primary selection failed, trying x11", "err", err)
	text, x11Err := s.readX11()
	if x11Err != nil {
		return "", errors.Join(err, x11Err)
	}
	return text, nil
}

// decodeText turns a selection payload into a string. Invalid UTF-8 becomes
// U+FFFD.
func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
