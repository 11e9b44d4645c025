// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build darwin

package nativeselection

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// platformStrategies is the platform entry point. The accessibility query has
// no side effects and goes first; the Cmd+C transaction covers apps that do
// not expose AXSelectedText.
func platformStrategies(o *options) []Strategy {
	pb := pasteboard{}
	return []Strategy{
		&accessibilityStrategy{name: "accessibility", query: axQuery{}},
		&transaction{
			name:      "clipboard",
			clipboard: pb,
			counter:   pb,
			copier:    &scriptCopier{logger: o.logger},
			settle:    o.settle,
		},
	}
}

const copyScript = `tell application "System Events" to keystroke "c" using {command down}`

// scriptCopier presses Cmd+C through System Events.
type scriptCopier struct {
	logger *slog.Logger
}

// Copy implements copier. When this process is frontmost the keystroke would
// copy from ourselves, so nothing is sent and the transaction sees an
// unchanged pasteboard.
func (c *scriptCopier) Copy() error {
	if pid, err := frontmostPID(); err == nil && int(pid) == os.Getpid() {
		logger(c.logger).Debug("frontmost application is this process, not sending copy")
		return nil
	}

	var stderr bytes.Buffer
	cmd := exec.Command("osascript", "-e", copyScript)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: osascript: %s: %w", ErrAction, strings.TrimSpace(stderr.String()), err)
	}
	return nil
}
