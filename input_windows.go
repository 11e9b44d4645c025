// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build windows

package nativeselection

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	wmCopy          = 0x0301
	smtoAbortIfHung = 0x0002

	// copyMessageTimeout bounds SendMessageTimeoutW for WM_COPY in
	// milliseconds.
	copyMessageTimeout = 200

	inputKeyboard = 1
	keyEventKeyUp = 0x0002
	vkTab         = 0x09
	vkShift       = 0x10
	vkControl     = 0x11
	vkMenu        = 0x12
	vkCapital     = 0x14
	vkEscape      = 0x1b
	vkSpace       = 0x20
	vkC           = 0x43
	vkLWin        = 0x5b
	vkRWin        = 0x5c
)

var (
	getForegroundWindow      = user32.NewProc("GetForegroundWindow")
	getWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	attachThreadInput        = user32.NewProc("AttachThreadInput")
	getFocus                 = user32.NewProc("GetFocus")
	sendMessageTimeout       = user32.NewProc("SendMessageTimeoutW")
	sendInput                = user32.NewProc("SendInput")
)

// sendCopyMessage sends WM_COPY to the focused control of the foreground
// window. GetFocus only sees the calling thread's input state, so the thread
// is attached to the foreground thread while it looks.
func sendCopyMessage() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	fg, _, _ := getForegroundWindow.Call()
	if fg == 0 {
		return fmt.Errorf("%w: no foreground window", ErrNotFound)
	}

	fgThread, _, _ := getWindowThreadProcessId.Call(fg, 0)
	self := uintptr(windows.GetCurrentThreadId())
	attached := false
	if fgThread != 0 && fgThread != self {
		r, _, _ := attachThreadInput.Call(self, fgThread, 1)
		attached = r != 0
	}
	focused, _, _ := getFocus.Call()
	if attached {
		attachThreadInput.Call(self, fgThread, 0)
	}
	if focused == 0 {
		return fmt.Errorf("%w: no focused control", ErrNotFound)
	}

	var result uintptr
	r, _, err := sendMessageTimeout.Call(focused, wmCopy, 0, 0, smtoAbortIfHung, copyMessageTimeout, uintptr(unsafe.Pointer(&result)))
	if r == 0 {
		return fmt.Errorf("%w: WM_COPY: %v", ErrAction, err)
	}
	return nil
}

// keyboardInput is INPUT with a KEYBDINPUT payload. The padding covers the
// larger MOUSEINPUT member of the union.
type keyboardInput struct {
	typ uint32
	ki  keybdInput
	_   [8]byte
}

type keybdInput struct {
	vk        uint16
	scan      uint16
	flags     uint32
	time      uint32
	extraInfo uintptr
}

func key(vk uint16, up bool) keyboardInput {
	in := keyboardInput{typ: inputKeyboard, ki: keybdInput{vk: vk}}
	if up {
		in.ki.flags = keyEventKeyUp
	}
	return in
}

func send(inputs []keyboardInput) error {
	n, _, err := sendInput.Call(uintptr(len(inputs)), uintptr(unsafe.Pointer(&inputs[0])), unsafe.Sizeof(inputs[0]))
	if int(n) != len(inputs) {
		return fmt.Errorf("%w: SendInput inserted %d of %d events: %v", ErrAction, n, len(inputs), err)
	}
	return nil
}

// sendInputChord synthesizes Ctrl+C with SendInput. It implements keyChord.
type sendInputChord struct{}

// ReleaseModifiers sends key-up for every key a user may still be holding
// from the hotkey that triggered the lookup.
func (sendInputChord) ReleaseModifiers() error {
	var inputs []keyboardInput
	for _, vk := range []uint16{vkControl, vkMenu, vkShift, vkSpace, vkLWin, vkRWin, vkTab, vkEscape, vkCapital, vkC} {
		inputs = append(inputs, key(vk, true))
	}
	return send(inputs)
}

func (sendInputChord) PressCopy() error {
	return send([]keyboardInput{
		key(vkControl, false),
		key(vkC, false),
		key(vkC, true),
		key(vkControl, true),
	})
}
