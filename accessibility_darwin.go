// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build darwin

package nativeselection

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
)

// AXError values
const (
	axErrorSuccess              = 0
	axErrorCannotComplete       = -25204
	axErrorAttributeUnsupported = -25205
	axErrorAPIDisabled          = -25211
	axErrorNoValue              = -25212
)

// Accessibility and CoreFoundation function pointers
var (
	axIsProcessTrustedWithOptions func(options uintptr) bool
	axUIElementCreateSystemWide   func() uintptr
	axUIElementCopyAttributeValue func(element, attribute uintptr, value *uintptr) int32
	cfRelease                     func(ref uintptr)
	cfGetTypeID                   func(ref uintptr) uint64
	cfStringGetTypeID             func() uint64

	kAXTrustedCheckOptionPrompt objc.ID

	axFocusedUIElementAttribute objc.ID
	axSelectedTextAttribute     objc.ID
)

var (
	axOnce     sync.Once
	axErr      error
	promptOnce sync.Once
)

func loadAccessibility() error {
	axOnce.Do(func() {
		if axErr = loadAppKit(); axErr != nil {
			return
		}

		services, err := purego.Dlopen("/System/Library/Frameworks/ApplicationServices.framework/ApplicationServices", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			axErr = fmt.Errorf("%w: load ApplicationServices: %w", ErrUnavailable, err)
			return
		}
		cf, err := purego.Dlopen("/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			axErr = fmt.Errorf("%w: load CoreFoundation: %w", ErrUnavailable, err)
			return
		}

		purego.RegisterLibFunc(&axIsProcessTrustedWithOptions, services, "AXIsProcessTrustedWithOptions")
		purego.RegisterLibFunc(&axUIElementCreateSystemWide, services, "AXUIElementCreateSystemWide")
		purego.RegisterLibFunc(&axUIElementCopyAttributeValue, services, "AXUIElementCopyAttributeValue")
		purego.RegisterLibFunc(&cfRelease, cf, "CFRelease")
		purego.RegisterLibFunc(&cfGetTypeID, cf, "CFGetTypeID")
		purego.RegisterLibFunc(&cfStringGetTypeID, cf, "CFStringGetTypeID")

		ptr, err := purego.Dlsym(services, "kAXTrustedCheckOptionPrompt")
		if err != nil {
			axErr = fmt.Errorf("%w: kAXTrustedCheckOptionPrompt: %w", ErrUnavailable, err)
			return
		}
		kAXTrustedCheckOptionPrompt = objc.ID(*(*uintptr)(unsafe.Pointer(ptr)))

		// Keep the attribute names alive for the process lifetime.
		retain := objc.RegisterName("retain")
		axFocusedUIElementAttribute = nsString("AXFocusedUIElement").Send(retain)
		axSelectedTextAttribute = nsString("AXSelectedText").Send(retain)
	})
	return axErr
}

// trusted reports whether the process may use the accessibility API. The
// first untrusted check asks macOS to prompt the user.
func trusted() bool {
	var ok bool
	prompted := false
	promptOnce.Do(func() {
		prompted = true
		// @{kAXTrustedCheckOptionPrompt: @YES}
		yes := objc.ID(nsNumberClass).Send(sel_numberWithBool, true)
		opts := objc.ID(nsDictionaryClass).Send(sel_dictionaryWithObjectForKey, yes, kAXTrustedCheckOptionPrompt)
		ok = axIsProcessTrustedWithOptions(uintptr(opts))
	})
	if !prompted {
		ok = axIsProcessTrustedWithOptions(0)
	}
	return ok
}

func axError(code int32, attr string) error {
	switch code {
	case axErrorSuccess:
		return nil
	case axErrorNoValue, axErrorAttributeUnsupported:
		return fmt.Errorf("%w: %s not available (AXError %d)", ErrNotFound, attr, code)
	case axErrorAPIDisabled:
		return fmt.Errorf("%w: accessibility API disabled", ErrUnavailable)
	case axErrorCannotComplete:
		return fmt.Errorf("%w: focused application did not answer for %s", ErrUnavailable, attr)
	default:
		return fmt.Errorf("%w: %s failed (AXError %d)", ErrUnavailable, attr, code)
	}
}

// axQuery reads AXSelectedText from the focused UI element.
type axQuery struct{}

// SelectedRanges implements rangeQuery. The accessibility API reports the
// selection as a single string.
func (axQuery) SelectedRanges() ([]string, error) {
	if err := loadAccessibility(); err != nil {
		return nil, err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !trusted() {
		return nil, fmt.Errorf("%w: accessibility permission not granted", ErrUnavailable)
	}

	system := axUIElementCreateSystemWide()
	if system == 0 {
		return nil, fmt.Errorf("%w: no system-wide accessibility element", ErrUnavailable)
	}
	defer cfRelease(system)

	var focused uintptr
	if err := axError(axUIElementCopyAttributeValue(system, uintptr(axFocusedUIElementAttribute), &focused), "AXFocusedUIElement"); err != nil {
		return nil, err
	}
	if focused == 0 {
		return nil, fmt.Errorf("%w: no focused element", ErrNotFound)
	}
	defer cfRelease(focused)

	var value uintptr
	if err := axError(axUIElementCopyAttributeValue(focused, uintptr(axSelectedTextAttribute), &value), "AXSelectedText"); err != nil {
		return nil, err
	}
	if value == 0 {
		return nil, fmt.Errorf("%w: no selected text", ErrNotFound)
	}
	defer cfRelease(value)

	if cfGetTypeID(value) != cfStringGetTypeID() {
		return nil, fmt.Errorf("%w: AXSelectedText is not a string", ErrNotFound)
	}

	// CFStringRef is toll-free bridged to NSString.
	utf8 := objc.ID(value).Send(sel_UTF8String)
	if utf8 == 0 {
		return nil, fmt.Errorf("%w: AXSelectedText has no UTF-8 form", ErrNotFound)
	}
	return []string{goString((*byte)(unsafe.Pointer(utf8)))}, nil
}
