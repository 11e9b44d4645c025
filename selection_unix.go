// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build (linux && !android) || freebsd

package nativeselection

// platformStrategies is the platform entry point. The session type decides
// between the X11 and Wayland primary selection inside a single strategy.
func platformStrategies(o *options) []Strategy {
	return []Strategy{
		&sessionStrategy{
			env:     o.env,
			x11:     &x11Primary{timeout: o.primaryTimeout},
			wayland: &waylandPrimary{timeout: o.pasteTimeout},
			logger:  o.logger,
		},
	}
}
