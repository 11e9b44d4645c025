//go:build windows

package nativeselection

import (
	"testing"
	"unsafe"
)

// TestKeyboardInputSize verifies that keyboardInput matches sizeof(INPUT)
func TestKeyboardInputSize(t *testing.T) {
	want := uintptr(28)
	if unsafe.Sizeof(uintptr(0)) == 8 {
		want = 40
	}
	if got := unsafe.Sizeof(keyboardInput{}); got != want {
		t.Fatalf("Expected sizeof(INPUT) %d, got %d", want, got)
	}
}

func TestKey(t *testing.T) {
	down := key(vkControl, false)
	if down.typ != inputKeyboard || down.ki.vk != vkControl || down.ki.flags != 0 {
		t.Fatalf("Unexpected key-down %+v", down)
	}
	if up := key(vkC, true); up.ki.flags != keyEventKeyUp {
		t.Fatalf("Expected KEYEVENTF_KEYUP, got %#x", up.ki.flags)
	}
}

func TestPlatformStrategiesWindows(t *testing.T) {
	o := defaultOptions()
	strategies := platformStrategies(&o)
	if len(strategies) != 2 {
		t.Fatalf("Expected 2 strategies, got %d", len(strategies))
	}
	if name := strategies[0].Name(); name != "ui-automation" {
		t.Fatalf("Expected UI Automation first, got %q", name)
	}
	tx, ok := strategies[1].(*transaction)
	if !ok {
		t.Fatalf("Expected *transaction, got %T", strategies[1])
	}
	if _, ok := tx.copier.(*escalatingCopier); !ok {
		t.Fatalf("Expected *escalatingCopier, got %T", tx.copier)
	}
}
