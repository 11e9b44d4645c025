// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build !darwin && !windows && !(linux && !android) && !freebsd

package nativeselection

func platformStrategies(*options) []Strategy {
	return []Strategy{unsupported{}}
}
