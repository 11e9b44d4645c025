// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build windows

package nativeselection

// platformStrategies is the platform entry point. UI Automation has no side
// effects and goes first; the clipboard transaction tries WM_COPY before
// falling back to a synthesized Ctrl+C.
func platformStrategies(o *options) []Strategy {
	cb := &winClipboard{open: o.openClipboard}
	return []Strategy{
		&accessibilityStrategy{name: "ui-automation", query: uiAutomation{}},
		&transaction{
			name:      "clipboard",
			clipboard: cb,
			counter:   cb,
			copier: &escalatingCopier{
				direct:  copierFunc(sendCopyMessage),
				chord:   sendInputChord{},
				counter: cb,
				logger:  o.logger,
			},
			settle: o.settle,
		},
	}
}
