// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build (linux && !android) || freebsd

package nativeselection

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"
)

// X11 types
type (
	xDisplay uintptr
	xWindow  uintptr
	xAtom    uintptr
	xTime    uintptr
	xBool    int32
)

// X11 constants
const (
	xNone            = 0
	xCurrentTime     = 0
	xAnyPropertyType = 0
	xSuccess         = 0
	xSelectionNotify = 31
	xPropertyNotify  = 28

	xPropertyNewValue   = 0
	xPropertyChangeMask = 1 << 22
)

// xEvent is a union in C, we need the largest variant
type xEvent struct {
	typ int32
	pad [23]uintptr
}

type xSelectionEvent struct {
	typ       int32
	serial    uintptr
	sendEvent xBool
	display   xDisplay
	requestor xWindow
	selection xAtom
	target    xAtom
	property  xAtom
	time      xTime
}

type xPropertyEvent struct {
	typ       int32
	serial    uintptr
	sendEvent xBool
	display   xDisplay
	window    xWindow
	atom      xAtom
	time      xTime
	state     int32
}

// X11 function pointers
var (
	xOpenDisplay        func(name *byte) xDisplay
	xCloseDisplay       func(display xDisplay) int32
	xDefaultRootWindow  func(display xDisplay) xWindow
	xCreateSimpleWindow func(display xDisplay, parent xWindow, x, y int32, width, height, borderWidth uint32, border, background uint64) xWindow
	xDestroyWindow      func(display xDisplay, w xWindow) int32
	xInternAtom         func(display xDisplay, name string, onlyIfExists xBool) xAtom
	xGetSelectionOwner  func(display xDisplay, selection xAtom) xWindow
	xConvertSelection   func(display xDisplay, selection, target, property xAtom, requestor xWindow, time xTime) int32
	xFlush              func(display xDisplay) int32
	xPending            func(display xDisplay) int32
	xNextEvent          func(display xDisplay, event *xEvent) int32
	xGetWindowProperty  func(display xDisplay, w xWindow, property xAtom, offset, length int64, del xBool, reqType xAtom, actualType *xAtom, actualFormat *int32, nitems, bytesAfter *uint64, prop **byte) int32
	xFree               func(data unsafe.Pointer) int32
	xSelectInput        func(display xDisplay, w xWindow, mask int64) int32
)

var (
	x11Once sync.Once
	x11Err  error
)

var x11Help = `%w: failed to load libX11, the X11 primary selection cannot be read.
Installing the following may help:

	# Debian/Ubuntu
	apt install -y libx11-6

	# Fedora/RHEL
	dnf install -y libX11

	# FreeBSD
	pkg install xorg-libraries
`

func loadX11() error {
	x11Once.Do(func() {
		libPaths := []string{
			"libX11.so.6",
			"libX11.so",
			"/usr/local/lib/libX11.so.6", // FreeBSD, OpenBSD
			"/usr/local/lib/libX11.so",
			"/usr/X11R6/lib/libX11.so.6",
			"/usr/X11R6/lib/libX11.so",
		}

		var (
			lib uintptr
			err error
		)
		for _, path := range libPaths {
			lib, err = purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if err == nil {
				break
			}
		}
		if err != nil {
			x11Err = fmt.Errorf(x11Help, ErrUnavailable)
			return
		}

		purego.RegisterLibFunc(&xOpenDisplay, lib, "XOpenDisplay")
		purego.RegisterLibFunc(&xCloseDisplay, lib, "XCloseDisplay")
		purego.RegisterLibFunc(&xDefaultRootWindow, lib, "XDefaultRootWindow")
		purego.RegisterLibFunc(&xCreateSimpleWindow, lib, "XCreateSimpleWindow")
		purego.RegisterLibFunc(&xDestroyWindow, lib, "XDestroyWindow")
		purego.RegisterLibFunc(&xInternAtom, lib, "XInternAtom")
		purego.RegisterLibFunc(&xGetSelectionOwner, lib, "XGetSelectionOwner")
		purego.RegisterLibFunc(&xConvertSelection, lib, "XConvertSelection")
		purego.RegisterLibFunc(&xFlush, lib, "XFlush")
		purego.RegisterLibFunc(&xPending, lib, "XPending")
		purego.RegisterLibFunc(&xNextEvent, lib, "XNextEvent")
		purego.RegisterLibFunc(&xGetWindowProperty, lib, "XGetWindowProperty")
		purego.RegisterLibFunc(&xFree, lib, "XFree")
		purego.RegisterLibFunc(&xSelectInput, lib, "XSelectInput")
	})
	return x11Err
}

// x11PollInterval is how often the event queue is checked while waiting for
// the selection owner.
const x11PollInterval = 2 * time.Millisecond

// x11MaxPropertyLength is the largest property read, in 32-bit units.
const x11MaxPropertyLength = 1 << 24

// x11MaxIncrLength caps a selection sent in INCR chunks.
const x11MaxIncrLength = 64 << 20

// x11Primary reads the PRIMARY selection through libX11.
type x11Primary struct {
	timeout time.Duration
}

// ReadPrimary asks the PRIMARY owner to convert the selection to UTF-8 and
// waits at most x.timeout for the answer, and for each chunk of an INCR
// transfer. Owners can hang, so an unanswered request means nothing selected
// rather than an error.
func (x *x11Primary) ReadPrimary() (string, error) {
	if err := loadX11(); err != nil {
		return "", err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var display xDisplay
	RetryPolicy{Attempts: 3}.Wait(func() (bool, error) {
		display = xOpenDisplay(nil)
		return display != 0, nil
	})
	if display == 0 {
		return "", fmt.Errorf("%w: cannot open X display", ErrUnavailable)
	}
	defer xCloseDisplay(display)

	sel := xInternAtom(display, "PRIMARY", 0)
	if xGetSelectionOwner(display, sel) == xNone {
		return "", fmt.Errorf("%w: PRIMARY has no owner", ErrNotFound)
	}

	target := xInternAtom(display, "UTF8_STRING", 0)
	prop := xInternAtom(display, "NATIVESELECTION_DATA", 0)
	incr := xInternAtom(display, "INCR", 0)

	root := xDefaultRootWindow(display)
	window := xCreateSimpleWindow(display, root, 0, 0, 1, 1, 0, 0, 0)
	defer xDestroyWindow(display, window)

	// INCR chunks are announced by PropertyNotify on the requestor.
	xSelectInput(display, window, xPropertyChangeMask)
	xConvertSelection(display, sel, target, prop, window, xCurrentTime)
	xFlush(display)

	var event xEvent
	answered := x.waitEvent(display, &event, func() bool {
		return event.typ == xSelectionNotify
	})
	if !answered {
		return "", fmt.Errorf("%w: PRIMARY owner did not answer within %s", ErrNotFound, x.timeout)
	}

	sev := (*xSelectionEvent)(unsafe.Pointer(&event))
	if sev.property == xNone || sev.selection != sel {
		return "", fmt.Errorf("%w: PRIMARY cannot be converted to UTF8_STRING", ErrNotFound)
	}

	actual, data, err := readProperty(display, window, prop)
	if err != nil {
		return "", err
	}
	if actual == incr {
		// Reading deleted the INCR property, which starts the transfer.
		data, err = readIncremental(func() ([]byte, error) {
			ok := x.waitEvent(display, &event, func() bool {
				pev := (*xPropertyEvent)(unsafe.Pointer(&event))
				return event.typ == xPropertyNotify && pev.atom == prop && pev.state == xPropertyNewValue
			})
			if !ok {
				return nil, fmt.Errorf("%w: PRIMARY owner stopped sending within %s", ErrNotFound, x.timeout)
			}
			_, chunk, err := readProperty(display, window, prop)
			return chunk, err
		}, x11MaxIncrLength)
		if err != nil {
			return "", err
		}
	}

	return decodeText(data), nil
}

// waitEvent drains the event queue until match accepts the event, polling
// for at most x.timeout.
func (x *x11Primary) waitEvent(display xDisplay, event *xEvent, match func() bool) bool {
	policy := RetryPolicy{Attempts: int(x.timeout / x11PollInterval), Delay: x11PollInterval}
	ok, _ := policy.Wait(func() (bool, error) {
		for xPending(display) > 0 {
			xNextEvent(display, event)
			if match() {
				return true, nil
			}
		}
		return false, nil
	})
	return ok
}

// readProperty reads and deletes prop on window. The deletion is flushed so
// an INCR owner sees it.
func readProperty(display xDisplay, window xWindow, prop xAtom) (xAtom, []byte, error) {
	var (
		actual            xAtom
		format            int32
		nitems, remaining uint64
		data              *byte
	)
	ret := xGetWindowProperty(display, window, prop,
		0, x11MaxPropertyLength, 1, xAnyPropertyType,
		&actual, &format, &nitems, &remaining, &data)
	if ret != xSuccess {
		return 0, nil, fmt.Errorf("%w: reading selection property failed", ErrUnavailable)
	}
	xFlush(display)
	if data == nil {
		return actual, nil, nil
	}
	defer xFree(unsafe.Pointer(data))

	// Xlib returns 32-bit items as longs.
	n := nitems
	switch format {
	case 16:
		n *= 2
	case 32:
		n *= uint64(unsafe.Sizeof(uintptr(0)))
	}
	return actual, bytes.Clone(unsafe.Slice(data, n)), nil
}

// readIncremental collects INCR chunks until the zero-length chunk that ends
// the transfer.
func readIncremental(next func() ([]byte, error), limit int) ([]byte, error) {
	var buf []byte
	for {
		chunk, err := next()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return buf, nil
		}
		if len(buf)+len(chunk) > limit {
			return nil, fmt.Errorf("%w: selection is larger than %d bytes", ErrUnavailable, limit)
		}
		buf = append(buf, chunk...)
	}
}
