// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build windows

package nativeselection

import (
	"bytes"
	"fmt"
	"image/png"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows clipboard format constants
const (
	cfUnicodeText = 13
	cfDIB         = 8
	cfDIBV5       = 17
	gmemMoveable  = 0x0002
)

// BITMAPV5HEADER structure
type bitmapV5Header struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
	RedMask       uint32
	GreenMask     uint32
	BlueMask      uint32
	AlphaMask     uint32
	CSType        uint32
	Endpoints     struct {
		CiexyzRed, CiexyzGreen, CiexyzBlue struct {
			CiexyzX, CiexyzY, CiexyzZ int32
		}
	}
	GammaRed    uint32
	GammaGreen  uint32
	GammaBlue   uint32
	Intent      uint32
	ProfileData uint32
	ProfileSize uint32
	Reserved    uint32
}

// Windows API functions
var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	openClipboard              = user32.NewProc("OpenClipboard")
	closeClipboard             = user32.NewProc("CloseClipboard")
	emptyClipboard             = user32.NewProc("EmptyClipboard")
	getClipboardData           = user32.NewProc("GetClipboardData")
	setClipboardData           = user32.NewProc("SetClipboardData")
	isClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	getClipboardSequenceNumber = user32.NewProc("GetClipboardSequenceNumber")

	gLock   = kernel32.NewProc("GlobalLock")
	gUnlock = kernel32.NewProc("GlobalUnlock")
	gAlloc  = kernel32.NewProc("GlobalAlloc")
	gFree   = kernel32.NewProc("GlobalFree")
	gSize   = kernel32.NewProc("GlobalSize")
)

// winClipboard is the Win32 clipboard. It implements clipboard and
// changeCounter.
type winClipboard struct {
	// open bounds the retries while another process holds the clipboard.
	open RetryPolicy
}

// withClipboard opens the clipboard, runs fn, and closes it again. The
// clipboard is owned by the opening thread, so the goroutine stays on it.
func (c *winClipboard) withClipboard(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	opened, _ := c.open.Wait(func() (bool, error) {
		r, _, _ := openClipboard.Call(0)
		return r != 0, nil
	})
	if !opened {
		return fmt.Errorf("%w: clipboard is held by another process", ErrUnavailable)
	}
	defer closeClipboard.Call()

	return fn()
}

func formatAvailable(format uintptr) bool {
	r, _, _ := isClipboardFormatAvailable.Call(format)
	return r != 0
}

// ReadText checks for text with the clipboard open. OpenClipboard fails
// while a writer holds it, so a copy between EmptyClipboard and
// SetClipboardData is never seen half done.
func (c *winClipboard) ReadText() (string, error) {
	var text string
	err := c.withClipboard(func() error {
		if !formatAvailable(cfUnicodeText) {
			return ErrNotFound
		}
		hMem, _, _ := getClipboardData.Call(cfUnicodeText)
		if hMem == 0 {
			return ErrNotFound
		}
		return withGlobal(hMem, func(data []byte) error {
			units := unsafe.Slice((*uint16)(unsafe.Pointer(unsafe.SliceData(data))), len(data)/2)
			text = windows.UTF16ToString(units)
			return nil
		})
	})
	return text, err
}

// ReadImage returns the clipboard bitmap as PNG, preferring CF_DIBV5.
func (c *winClipboard) ReadImage() ([]byte, error) {
	var img []byte
	err := c.withClipboard(func() error {
		err := error(ErrNotFound)
		for _, format := range []uintptr{cfDIBV5, cfDIB} {
			if !formatAvailable(format) {
				continue
			}
			hMem, _, _ := getClipboardData.Call(format)
			if hMem == 0 {
				continue
			}
			err = withGlobal(hMem, func(data []byte) error {
				var err error
				img, err = dibToPNG(data)
				return err
			})
			if err == nil {
				return nil
			}
		}
		return err
	})
	return img, err
}

// withGlobal locks hMem and passes its contents to fn. The slice covers
// exactly GlobalSize bytes and is only valid during fn.
func withGlobal(hMem uintptr, fn func(data []byte) error) error {
	size, _, _ := gSize.Call(hMem)
	if size == 0 {
		return fmt.Errorf("%w: clipboard memory has no size", ErrTransaction)
	}
	p, _, _ := gLock.Call(hMem)
	if p == 0 {
		return fmt.Errorf("%w: cannot lock clipboard memory", ErrUnavailable)
	}
	defer gUnlock.Call(hMem)

	return fn(unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
}

// setGlobal copies data into movable global memory and hands it to the
// clipboard as format. The clipboard owns the memory on success.
func setGlobal(format uintptr, data []byte) error {
	hMem, _, _ := gAlloc.Call(gmemMoveable, uintptr(len(data)))
	if hMem == 0 {
		return fmt.Errorf("%w: cannot allocate global memory", ErrUnavailable)
	}

	p, _, _ := gLock.Call(hMem)
	if p == 0 {
		gFree.Call(hMem)
		return fmt.Errorf("%w: cannot lock global memory", ErrUnavailable)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), len(data)), data)
	gUnlock.Call(hMem)

	if v, _, _ := setClipboardData.Call(format, hMem); v == 0 {
		gFree.Call(hMem)
		return fmt.Errorf("%w: SetClipboardData refused format %d", ErrUnavailable, format)
	}
	return nil
}

func emptyLocked() error {
	if r, _, _ := emptyClipboard.Call(); r == 0 {
		return fmt.Errorf("%w: cannot empty clipboard", ErrUnavailable)
	}
	return nil
}

func (c *winClipboard) WriteText(text string) error {
	s, err := windows.UTF16FromString(text)
	if err != nil {
		return fmt.Errorf("convert text: %w", err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*2)

	return c.withClipboard(func() error {
		if err := emptyLocked(); err != nil {
			return err
		}
		return setGlobal(cfUnicodeText, data)
	})
}

// WriteImage puts a PNG on the clipboard as a 32-bit CF_DIBV5.
func (c *winClipboard) WriteImage(buf []byte) error {
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("input is not PNG: %w", err)
	}

	offset := int(unsafe.Sizeof(bitmapV5Header{}))
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	min := img.Bounds().Min

	data := make([]byte, offset+4*width*height)
	for y := range height {
		for x := range width {
			idx := offset + 4*(y*width+x)
			r, g, b, a := img.At(min.X+x, min.Y+height-1-y).RGBA()
			data[idx+2] = uint8(r >> 8)
			data[idx+1] = uint8(g >> 8)
			data[idx+0] = uint8(b >> 8)
			data[idx+3] = uint8(a >> 8)
		}
	}

	info := bitmapV5Header{
		Size:      uint32(offset),
		Width:     int32(width),
		Height:    int32(height),
		Planes:    1,
		BitCount:  32,
		SizeImage: uint32(4 * width * height),
		RedMask:   0xff0000,
		GreenMask: 0xff00,
		BlueMask:  0xff,
		AlphaMask: 0xff000000,
		CSType:    0x73524742, // sRGB
		Intent:    4,          // LCS_GM_IMAGES
	}
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(&info)), offset))

	return c.withClipboard(func() error {
		if err := emptyLocked(); err != nil {
			return err
		}
		return setGlobal(cfDIBV5, data)
	})
}

func (c *winClipboard) Clear() error {
	return c.withClipboard(emptyLocked)
}

// ChangeCount returns GetClipboardSequenceNumber.
func (c *winClipboard) ChangeCount() (int64, error) {
	r, _, _ := getClipboardSequenceNumber.Call()
	return int64(r), nil
}
