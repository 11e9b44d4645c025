// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build darwin || (linux && !android) || freebsd

package nativeselection

import "unsafe"

// goString copies a NUL-terminated C string.
func goString(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(ptr), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(ptr, n))
}
