// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

// Package nativeselection retrieves the text currently selected by the user
// on macOS, Linux, and Windows. It reads the selection itself, not the
// clipboard, using purego instead of cgo for the native calls.
//
// Each platform runs an ordered chain of strategies and returns the first
// non-empty result:
//
//	macOS    accessibility query, then a clipboard transaction (Cmd+C)
//	Windows  UI Automation text pattern, then a clipboard transaction
//	         (WM_COPY, escalating to a synthetic Ctrl+C)
//	Linux    the X11 or Wayland primary selection, chosen by session type
//
// Clipboard transactions snapshot the clipboard before triggering a copy and
// restore it afterwards, so the user's clipboard is left as it was found.
//
// Read the selection:
//
//	text := nativeselection.Text()
//	if text == "" {
//		// nothing selected, or no strategy could read it
//	}
//
// Text never fails. An empty string means either that nothing is selected or
// that every strategy failed; failures are logged through log/slog.
package nativeselection

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrNotFound indicates there is no focused element, no selection, or no
	// matching content type. Treated as "nothing selected".
	ErrNotFound = errors.New("selection not found")
	// ErrUnavailable indicates a permission is missing, an API or service is
	// absent, or an environment signal cannot be read.
	ErrUnavailable = errors.New("selection unavailable")
	// ErrTransaction indicates the clipboard could not be read, written, or
	// restored during a clipboard transaction.
	ErrTransaction = errors.New("clipboard transaction failed")
	// ErrAction indicates the copy trigger or input synthesis failed.
	ErrAction = errors.New("copy action failed")
	// ErrUnsupportedPlatform indicates the platform has no selection strategies.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Result is the outcome of a single retrieval.
type Result struct {
	// Text is the selected text with surrounding whitespace and NUL padding
	// removed.
	Text string
}

// Empty reports whether nothing was retrieved.
func (r Result) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Retriever retrieves the current selection.
type Retriever interface {
	Retrieve() Result
}

// Selector retrieves the selection using a platform strategy chain.
type Selector struct {
	chain chain
}

var _ Retriever = (*Selector)(nil)

// Retrievals touch the system clipboard and the input queue. Running two at
// once would let one transaction restore over the other, so only one runs at a
// time per process.
var lock = sync.Mutex{}

// New returns a Selector configured with opts. Native libraries are loaded
// lazily on the first retrieval, not here.
func New(opts ...Option) *Selector {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	strategies := o.strategies
	if strategies == nil {
		strategies = platformStrategies(&o)
	}
	return &Selector{
		chain: chain{strategies: strategies, logger: o.logger},
	}
}

// Retrieve runs the strategy chain and returns its result. It never fails.
func (s *Selector) Retrieve() Result {
	lock.Lock()
	defer lock.Unlock()

	return Result{Text: s.chain.run()}
}

// Text returns the current selection, or an empty string.
func (s *Selector) Text() string {
	return s.Retrieve().Text
}

var defaultSelector = sync.OnceValue(func() *Selector {
	return New()
})

// Text returns the text currently selected in the focused application using a
// process-wide Selector with default options. It returns an empty string when
// nothing is selected or the platform denies access.
func Text() string {
	return defaultSelector().Text()
}

// unsupported is the only strategy on platforms without an implementation.
type unsupported struct{}

func (unsupported) Name() string { return "unsupported" }

func (unsupported) Retrieve() (string, error) {
	return "", fmt.Errorf("%w: no selection strategies for this platform", ErrUnsupportedPlatform)
}

// logger returns l, or the default logger when l is nil.
func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
