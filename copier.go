// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import (
	"errors"
	"fmt"
	"log/slog"
)

// keyChord synthesizes keyboard input.
type keyChord interface {
	// ReleaseModifiers sends key-up for every modifier, so a modifier stuck
	// down by an earlier chord cannot turn Ctrl+C into something else.
	ReleaseModifiers() error
	// PressCopy sends the copy shortcut.
	PressCopy() error
}

// escalatingCopier sends a copy request straight to the focused control and
// only synthesizes the copy shortcut when that did not change the clipboard.
// The direct request is synchronous, so the counter is checked right after
// it; the caller's settle wait covers the asynchronous chord.
type escalatingCopier struct {
	direct  copier
	chord   keyChord
	counter changeCounter
	logger  *slog.Logger
}

func (c *escalatingCopier) Copy() error {
	before, err := c.counter.ChangeCount()
	if err != nil {
		return fmt.Errorf("%w: read revision: %w", ErrTransaction, err)
	}

	directErr := c.direct.Copy()
	if directErr == nil {
		now, err := c.counter.ChangeCount()
		if err != nil {
			return fmt.Errorf("%w: read revision: %w", ErrTransaction, err)
		}
		if now != before {
			return nil
		}
	}
	logger(c.logger).Debug("direct copy did not change the clipboard, sending copy shortcut", "err", directErr)

	if err := c.chord.ReleaseModifiers(); err != nil {
		return fmt.Errorf("%w: release modifiers: %w", ErrAction, err)
	}
	if err := c.chord.PressCopy(); err != nil {
		if !errors.Is(err, ErrAction) {
			err = fmt.Errorf("%w: %w", ErrAction, err)
		}
		return err
	}
	return nil
}
