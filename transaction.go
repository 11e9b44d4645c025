// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import (
	"errors"
	"fmt"
)

// copier asks the focused application to copy its selection. The copy lands
// on the clipboard asynchronously.
type copier interface {
	Copy() error
}

// copierFunc adapts a function to copier.
type copierFunc func() error

func (f copierFunc) Copy() error { return f() }

// transaction retrieves the selection by copying it to the clipboard and
// putting the previous clipboard content back afterwards.
type transaction struct {
	name      string
	clipboard clipboard
	counter   changeCounter
	copier    copier
	settle    RetryPolicy
}

func (t *transaction) Name() string { return t.name }

// Retrieve implements Strategy. If the revision counter does not move after
// the copy, nothing was selected: the clipboard was never touched and the
// result is empty with no error.
func (t *transaction) Retrieve() (string, error) {
	snap, err := captureSnapshot(t.clipboard)
	if err != nil {
		return "", err
	}

	before, err := t.counter.ChangeCount()
	if err != nil {
		return "", fmt.Errorf("%w: read revision: %w", ErrTransaction, err)
	}

	if err := t.copier.Copy(); err != nil {
		// The trigger may have partially run; put the clipboard back if it moved.
		if changed, _ := t.changedSince(before); changed {
			err = errors.Join(err, snap.restore(t.clipboard))
		}
		return "", err
	}

	// A copy can take more than one write, for example an empty followed by
	// the data. Once the counter moves, the copy is done when text can be
	// read or the counter holds still for one more tick.
	last := before
	_, err = t.settle.Wait(func() (bool, error) {
		now, err := t.counter.ChangeCount()
		switch {
		case err != nil:
			return false, err
		case now == before:
			return false, nil
		case now != last:
			last = now
			_, err := t.clipboard.ReadText()
			return err == nil, nil
		default:
			return true, nil
		}
	})
	if err != nil {
		err = fmt.Errorf("%w: read revision: %w", ErrTransaction, err)
		if last != before {
			err = errors.Join(err, snap.restore(t.clipboard))
		}
		return "", err
	}
	if last == before {
		return "", nil
	}

	text, readErr := t.clipboard.ReadText()
	if readErr != nil && !errors.Is(readErr, ErrNotFound) {
		readErr = fmt.Errorf("%w: read copied text: %w", ErrTransaction, readErr)
	}
	if err := snap.restore(t.clipboard); err != nil {
		return "", errors.Join(readErr, err)
	}
	if readErr != nil {
		return "", readErr
	}
	return text, nil
}

func (t *transaction) changedSince(before int64) (bool, error) {
	now, err := t.counter.ChangeCount()
	if err != nil {
		return false, err
	}
	return now != before, nil
}
