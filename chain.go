// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// Strategy is one mechanism for retrieving the selection. Retrieve must leave
// the clipboard and the input queue no worse than it found them, even when it
// fails.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Retrieve returns the selected text. An empty string with a nil error
	// means the strategy ran and found nothing selected.
	Retrieve() (string, error)
}

// chain tries strategies in order. Errors and empty results advance to the
// next strategy; the first non-empty result wins.
type chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

func (c chain) run() string {
	log := logger(c.logger)
	for _, s := range c.strategies {
		text, err := retrieve(s)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, ErrNotFound) {
				level = slog.LevelDebug
			}
			log.Log(context.Background(), level, "selection strategy failed", "strategy", s.Name(), "err", err)
			continue
		}

		text = clean(text)
		if text == "" {
			log.Debug("selection strategy returned nothing", "strategy", s.Name())
			continue
		}
		return text
	}
	return ""
}

// retrieve runs s, converting a panic into an error.
func retrieve(s Strategy) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %s panicked: %v", ErrAction, s.Name(), r)
		}
	}()
	return s.Retrieve()
}

// clean strips whitespace and NUL padding from both ends of s.
func clean(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
}

// strategyFunc adapts a function to Strategy.
type strategyFunc struct {
	name string
	fn   func() (string, error)
}

func (s strategyFunc) Name() string              { return s.name }
func (s strategyFunc) Retrieve() (string, error) { return s.fn() }

// StrategyFunc returns a Strategy named name that calls fn.
func StrategyFunc(name string, fn func() (string, error)) Strategy {
	return strategyFunc{name: name, fn: fn}
}
