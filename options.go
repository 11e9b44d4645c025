// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import (
	"log/slog"
	"time"
)

// Default timings.
const (
	DefaultPrimaryTimeout = 100 * time.Millisecond
	DefaultPasteTimeout   = 500 * time.Millisecond
)

// DefaultSettlePolicy waits up to ~100ms for the clipboard to change after a
// copy was triggered.
var DefaultSettlePolicy = RetryPolicy{Attempts: 5, Delay: 20 * time.Millisecond}

// Option configures a Selector.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	settle         RetryPolicy
	openClipboard  RetryPolicy
	primaryTimeout time.Duration
	pasteTimeout   time.Duration
	env            *Environment
	strategies     []Strategy
}

// processEnvironment is shared by every Selector that is not given its own
// Environment, so a Wayland downgrade sticks for the process lifetime. Until
// then it reads the process environment on every call.
var processEnvironment = EnvironmentFromProcess()

func defaultOptions() options {
	return options{
		settle:         DefaultSettlePolicy,
		openClipboard:  RetryPolicy{Attempts: 10, Delay: 10 * time.Millisecond},
		primaryTimeout: DefaultPrimaryTimeout,
		pasteTimeout:   DefaultPasteTimeout,
		env:            processEnvironment,
	}
}

// WithLogger sets the logger used for strategy failures. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSettlePolicy sets how long a clipboard transaction waits for the
// clipboard revision counter to move after triggering a copy.
func WithSettlePolicy(p RetryPolicy) Option {
	return func(o *options) {
		o.settle = p
	}
}

// WithPrimaryTimeout bounds the wait for the X11 PRIMARY selection owner to
// answer. Owners that do not answer in time are treated as "nothing selected".
func WithPrimaryTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.primaryTimeout = d
		}
	}
}

// WithPasteTimeout bounds reading the Wayland primary selection.
func WithPasteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pasteTimeout = d
		}
	}
}

// WithEnvironment sets the session environment used on Linux. Selectors
// sharing an Environment share its one-time X11 downgrade.
func WithEnvironment(env *Environment) Option {
	return func(o *options) {
		if env != nil {
			o.env = env
		}
	}
}

// WithStrategies replaces the platform strategy chain.
func WithStrategies(s ...Strategy) Option {
	return func(o *options) {
		o.strategies = append([]Strategy{}, s...)
	}
}
