// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build darwin

package nativeselection

import (
	"bytes"
	"fmt"
	"image/png"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
	"golang.org/x/image/tiff"
)

var (
	// Classes
	nsPasteboardClass objc.Class
	nsDataClass       objc.Class
	nsStringClass     objc.Class
	nsWorkspaceClass  objc.Class
	nsDictionaryClass objc.Class
	nsNumberClass     objc.Class

	// Selectors
	sel_generalPasteboard          objc.SEL
	sel_dataForType                objc.SEL
	sel_clearContents              objc.SEL
	sel_setData_forType            objc.SEL
	sel_changeCount                objc.SEL
	sel_dataWithBytes_length       objc.SEL
	sel_bytes                      objc.SEL
	sel_length                     objc.SEL
	sel_stringWithUTF8String       objc.SEL
	sel_UTF8String                 objc.SEL
	sel_sharedWorkspace            objc.SEL
	sel_frontmostApplication       objc.SEL
	sel_processIdentifier          objc.SEL
	sel_dictionaryWithObjectForKey objc.SEL
	sel_numberWithBool             objc.SEL

	// Pasteboard types (NSString constants)
	NSPasteboardTypeString objc.ID
	NSPasteboardTypePNG    objc.ID
	NSPasteboardTypeTIFF   objc.ID
)

var (
	appKitOnce sync.Once
	appKitErr  error
)

func loadAppKit() error {
	appKitOnce.Do(func() {
		appKitErr = initializeAppKit()
	})
	return appKitErr
}

func initializeAppKit() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Load AppKit framework for NSPasteboard and NSWorkspace
	appkit, err := purego.Dlopen("/System/Library/Frameworks/AppKit.framework/AppKit", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("%w: load AppKit: %w", ErrUnavailable, err)
	}

	nsPasteboardClass = objc.GetClass("NSPasteboard")
	nsDataClass = objc.GetClass("NSData")
	nsStringClass = objc.GetClass("NSString")
	nsWorkspaceClass = objc.GetClass("NSWorkspace")
	nsDictionaryClass = objc.GetClass("NSDictionary")
	nsNumberClass = objc.GetClass("NSNumber")

	sel_generalPasteboard = objc.RegisterName("generalPasteboard")
	sel_dataForType = objc.RegisterName("dataForType:")
	sel_clearContents = objc.RegisterName("clearContents")
	sel_setData_forType = objc.RegisterName("setData:forType:")
	sel_changeCount = objc.RegisterName("changeCount")
	sel_dataWithBytes_length = objc.RegisterName("dataWithBytes:length:")
	sel_bytes = objc.RegisterName("bytes")
	sel_length = objc.RegisterName("length")
	sel_stringWithUTF8String = objc.RegisterName("stringWithUTF8String:")
	sel_UTF8String = objc.RegisterName("UTF8String")
	sel_sharedWorkspace = objc.RegisterName("sharedWorkspace")
	sel_frontmostApplication = objc.RegisterName("frontmostApplication")
	sel_processIdentifier = objc.RegisterName("processIdentifier")
	sel_dictionaryWithObjectForKey = objc.RegisterName("dictionaryWithObject:forKey:")
	sel_numberWithBool = objc.RegisterName("numberWithBool:")

	// NSPasteboardType* are NSString constants exported by AppKit
	for _, c := range []struct {
		name string
		dst  *objc.ID
	}{
		{"NSPasteboardTypeString", &NSPasteboardTypeString},
		{"NSPasteboardTypePNG", &NSPasteboardTypePNG},
		{"NSPasteboardTypeTIFF", &NSPasteboardTypeTIFF},
	} {
		ptr, err := purego.Dlsym(appkit, c.name)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrUnavailable, c.name, err)
		}
		*c.dst = objc.ID(*(*uintptr)(unsafe.Pointer(ptr)))
	}

	return nil
}

// nsString returns an autoreleased NSString holding s.
func nsString(s string) objc.ID {
	b := append([]byte(s), 0)
	return objc.ID(nsStringClass).Send(sel_stringWithUTF8String, unsafe.Pointer(&b[0]))
}

// pasteboard is the general NSPasteboard. It implements clipboard and
// changeCounter.
type pasteboard struct{}

func generalPasteboard() (objc.ID, error) {
	if err := loadAppKit(); err != nil {
		return 0, err
	}
	pb := objc.ID(nsPasteboardClass).Send(sel_generalPasteboard)
	if pb == 0 {
		return 0, fmt.Errorf("%w: no general pasteboard", ErrUnavailable)
	}
	return pb, nil
}

// readData copies the pasteboard data for typ. It returns ErrNotFound when
// the pasteboard has no data of that type.
func readData(typ objc.ID) ([]byte, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pb, err := generalPasteboard()
	if err != nil {
		return nil, err
	}

	// [pasteboard dataForType:type]
	data := pb.Send(sel_dataForType, typ)
	if data == 0 {
		return nil, ErrNotFound
	}

	length := objc.Send[uint64](data, sel_length)
	if length == 0 {
		return []byte{}, nil
	}

	ptr := data.Send(sel_bytes)
	if ptr == 0 {
		return nil, fmt.Errorf("%w: pasteboard data has no bytes", ErrUnavailable)
	}

	result := make([]byte, length)
	copy(result, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), length))
	return result, nil
}

// writeData replaces the pasteboard content with buf as typ.
func writeData(typ objc.ID, buf []byte) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pb, err := generalPasteboard()
	if err != nil {
		return err
	}

	// [pasteboard clearContents]
	pb.Send(sel_clearContents)

	// [NSData dataWithBytes:buf length:len(buf)]
	var ptr unsafe.Pointer
	if len(buf) > 0 {
		ptr = unsafe.Pointer(&buf[0])
	}
	data := objc.ID(nsDataClass).Send(sel_dataWithBytes_length, ptr, uint64(len(buf)))
	if data == 0 {
		return fmt.Errorf("%w: cannot allocate NSData", ErrUnavailable)
	}

	// [pasteboard setData:data forType:type]
	if !objc.Send[bool](pb, sel_setData_forType, data, typ) {
		return fmt.Errorf("%w: setData:forType: refused", ErrUnavailable)
	}
	return nil
}

func (pasteboard) ReadText() (string, error) {
	if err := loadAppKit(); err != nil {
		return "", err
	}
	b, err := readData(NSPasteboardTypeString)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadImage returns the pasteboard image as PNG. TIFF images, which is what
// most macOS apps put on the pasteboard, are converted.
func (pasteboard) ReadImage() ([]byte, error) {
	if err := loadAppKit(); err != nil {
		return nil, err
	}
	if b, err := readData(NSPasteboardTypePNG); err == nil {
		return b, nil
	}

	b, err := readData(NSPasteboardTypeTIFF)
	if err != nil {
		return nil, err
	}
	img, err := tiff.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode pasteboard TIFF: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (pasteboard) WriteText(text string) error {
	if err := loadAppKit(); err != nil {
		return err
	}
	return writeData(NSPasteboardTypeString, []byte(text))
}

func (pasteboard) WriteImage(buf []byte) error {
	if err := loadAppKit(); err != nil {
		return err
	}
	return writeData(NSPasteboardTypePNG, buf)
}

func (pasteboard) Clear() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pb, err := generalPasteboard()
	if err != nil {
		return err
	}
	pb.Send(sel_clearContents)
	return nil
}

// ChangeCount returns the pasteboard's changeCount.
func (pasteboard) ChangeCount() (int64, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pb, err := generalPasteboard()
	if err != nil {
		return 0, err
	}
	return objc.Send[int64](pb, sel_changeCount), nil
}

// frontmostPID returns the process id of the frontmost application.
func frontmostPID() (int32, error) {
	if err := loadAppKit(); err != nil {
		return 0, err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// [[NSWorkspace sharedWorkspace] frontmostApplication]
	app := objc.ID(nsWorkspaceClass).Send(sel_sharedWorkspace).Send(sel_frontmostApplication)
	if app == 0 {
		return 0, fmt.Errorf("%w: no frontmost application", ErrNotFound)
	}
	return objc.Send[int32](app, sel_processIdentifier), nil
}
