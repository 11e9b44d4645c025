// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build windows

package nativeselection

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
)

var (
	clsidCUIAutomation            = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation              = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")
	iidIUIAutomationTextPattern   = ole.NewGUID("{32EBA289-3583-42C9-9C59-3B6D9A1E9B6A}")
	errAutomationPatternMissing   = errors.New("focused element has no text pattern")
	errAutomationNoFocusedElement = errors.New("no focused element")
)

const (
	uiaTextPatternId = 10014

	sFalse          = 0x00000001
	rpcEChangedMode = 0x80010106
)

// Vtable slots, IUnknown occupies 0 to 2.
const (
	slotGetFocusedElement   = 8  // IUIAutomation
	slotGetCurrentPatternAs = 14 // IUIAutomationElement
	slotGetSelection        = 5  // IUIAutomationTextPattern
	slotArrayLength         = 3  // IUIAutomationTextRangeArray
	slotArrayElement        = 4  // IUIAutomationTextRangeArray
	slotGetText             = 12 // IUIAutomationTextRange
)

// comCall invokes a vtable method of obj and converts a failing HRESULT.
func comCall(obj *ole.IUnknown, slot int, args ...uintptr) error {
	vtbl := (*[32]uintptr)(unsafe.Pointer(obj.RawVTable))
	hr, _, _ := syscall.SyscallN(vtbl[slot], append([]uintptr{uintptr(unsafe.Pointer(obj))}, args...)...)
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}

// comInit initializes COM on the current thread. The returned func undoes it
// when this call was the one that initialized it.
func comInit() (func(), error) {
	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err == nil {
		return ole.CoUninitialize, nil
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch uint32(oleErr.Code()) {
		case sFalse:
			return ole.CoUninitialize, nil
		case rpcEChangedMode:
			return func() {}, nil
		}
	}
	return nil, fmt.Errorf("%w: CoInitializeEx: %w", ErrUnavailable, err)
}

// uiAutomation reads the selection of the focused element through the UI
// Automation text pattern. It implements rangeQuery.
type uiAutomation struct{}

func (uiAutomation) SelectedRanges() ([]string, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	uninit, err := comInit()
	if err != nil {
		return nil, err
	}
	defer uninit()

	automation, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		return nil, fmt.Errorf("%w: create CUIAutomation: %w", ErrUnavailable, err)
	}
	defer automation.Release()

	var element *ole.IUnknown
	if err := comCall(automation, slotGetFocusedElement, uintptr(unsafe.Pointer(&element))); err != nil {
		return nil, fmt.Errorf("%w: GetFocusedElement: %w", ErrUnavailable, err)
	}
	if element == nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, errAutomationNoFocusedElement)
	}
	defer element.Release()

	var pattern *ole.IUnknown
	if err := comCall(element, slotGetCurrentPatternAs, uiaTextPatternId, uintptr(unsafe.Pointer(iidIUIAutomationTextPattern)), uintptr(unsafe.Pointer(&pattern))); err != nil {
		return nil, fmt.Errorf("%w: GetCurrentPatternAs: %w", ErrNotFound, err)
	}
	if pattern == nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, errAutomationPatternMissing)
	}
	defer pattern.Release()

	var ranges *ole.IUnknown
	if err := comCall(pattern, slotGetSelection, uintptr(unsafe.Pointer(&ranges))); err != nil {
		return nil, fmt.Errorf("%w: GetSelection: %w", ErrUnavailable, err)
	}
	if ranges == nil {
		return nil, fmt.Errorf("%w: no selection ranges", ErrNotFound)
	}
	defer ranges.Release()

	var n int32
	if err := comCall(ranges, slotArrayLength, uintptr(unsafe.Pointer(&n))); err != nil {
		return nil, fmt.Errorf("%w: selection length: %w", ErrUnavailable, err)
	}

	texts := make([]string, 0, n)
	for i := range n {
		text, err := rangeText(ranges, i)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func rangeText(ranges *ole.IUnknown, i int32) (string, error) {
	var r *ole.IUnknown
	if err := comCall(ranges, slotArrayElement, uintptr(i), uintptr(unsafe.Pointer(&r))); err != nil {
		return "", fmt.Errorf("%w: selection range %d: %w", ErrUnavailable, i, err)
	}
	if r == nil {
		return "", nil
	}
	defer r.Release()

	var bstr *uint16
	maxLength := int32(-1)
	if err := comCall(r, slotGetText, uintptr(maxLength), uintptr(unsafe.Pointer(&bstr))); err != nil {
		return "", fmt.Errorf("%w: range %d text: %w", ErrUnavailable, i, err)
	}
	if bstr == nil {
		return "", nil
	}
	defer ole.SysFreeString((*int16)(unsafe.Pointer(bstr)))
	return ole.BstrToString(bstr), nil
}
