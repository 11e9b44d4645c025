// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

package nativeselection

import "strings"

// rangeQuery asks the OS accessibility or automation layer for the text
// ranges selected in the focused element. It returns ErrNotFound when there
// is no focused element or the element does not expose a selection.
type rangeQuery interface {
	SelectedRanges() ([]string, error)
}

// accessibilityStrategy reads the selection from the accessibility tree. It
// never touches the clipboard.
type accessibilityStrategy struct {
	name  string
	query rangeQuery
}

func (s *accessibilityStrategy) Name() string { return s.name }

// Retrieve implements Strategy. Ranges are concatenated in the order the OS
// returned them.
func (s *accessibilityStrategy) Retrieve() (string, error) {
	ranges, err := s.query.SelectedRanges()
	if err != nil {
		return "", err
	}
	return strings.Join(ranges, ""), nil
}
