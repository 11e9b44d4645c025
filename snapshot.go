// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import (
	"errors"
	"fmt"
)

// clipboard is the platform clipboard as seen by a transaction. ReadText and
// ReadImage return ErrNotFound when the clipboard holds no data in that
// format. Images are PNG-encoded.
type clipboard interface {
	ReadText() (string, error)
	ReadImage() ([]byte, error)
	WriteText(text string) error
	WriteImage(png []byte) error
	Clear() error
}

// changeCounter reads the clipboard revision counter. The OS bumps it on every
// clipboard write.
type changeCounter interface {
	ChangeCount() (int64, error)
}

// SnapshotKind tags the content held by a Snapshot.
type SnapshotKind int

// Snapshot kinds.
const (
	SnapshotEmpty SnapshotKind = iota
	SnapshotText
	SnapshotImage
)

func (k SnapshotKind) String() string {
	switch k {
	case SnapshotText:
		return "text"
	case SnapshotImage:
		return "image"
	default:
		return "empty"
	}
}

// Snapshot is the clipboard content captured before a transaction.
type Snapshot struct {
	Kind  SnapshotKind
	Text  string
	Image []byte
}

// captureSnapshot records the clipboard, preferring text, then image. A
// clipboard holding neither is recorded as empty.
func captureSnapshot(cb clipboard) (Snapshot, error) {
	text, err := cb.ReadText()
	switch {
	case err == nil:
		return Snapshot{Kind: SnapshotText, Text: text}, nil
	case !errors.Is(err, ErrNotFound):
		return Snapshot{}, fmt.Errorf("%w: snapshot text: %w", ErrTransaction, err)
	}

	img, err := cb.ReadImage()
	switch {
	case err == nil:
		return Snapshot{Kind: SnapshotImage, Image: img}, nil
	case !errors.Is(err, ErrNotFound):
		return Snapshot{}, fmt.Errorf("%w: snapshot image: %w", ErrTransaction, err)
	}

	return Snapshot{Kind: SnapshotEmpty}, nil
}

// restore writes s back to cb.
func (s Snapshot) restore(cb clipboard) error {
	var err error
	switch s.Kind {
	case SnapshotText:
		err = cb.WriteText(s.Text)
	case SnapshotImage:
		err = cb.WriteImage(s.Image)
	default:
		err = cb.Clear()
	}
	if err != nil {
		return fmt.Errorf("%w: restore %s: %w", ErrTransaction, s.Kind, err)
	}
	return nil
}
