//go:build darwin

package nativeselection

import (
	"errors"
	"testing"
)

func TestAXError(t *testing.T) {
	tests := []struct {
		code int32
		want error
	}{
		{axErrorSuccess, nil},
		{axErrorNoValue, ErrNotFound},
		{axErrorAttributeUnsupported, ErrNotFound},
		{axErrorAPIDisabled, ErrUnavailable},
		{axErrorCannotComplete, ErrUnavailable},
		{-25200, ErrUnavailable},
	}
	for _, tt := range tests {
		err := axError(tt.code, "AXSelectedText")
		if tt.want == nil {
			if err != nil {
				t.Errorf("axError(%d) = %v, want nil", tt.code, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("axError(%d) = %v, want %v", tt.code, err, tt.want)
		}
	}
}

func TestPlatformStrategiesDarwin(t *testing.T) {
	o := defaultOptions()
	strategies := platformStrategies(&o)
	if len(strategies) != 2 {
		t.Fatalf("Expected 2 strategies, got %d", len(strategies))
	}
	if name := strategies[0].Name(); name != "accessibility" {
		t.Fatalf("Expected accessibility first, got %q", name)
	}
	if name := strategies[1].Name(); name != "clipboard" {
		t.Fatalf("Expected clipboard second, got %q", name)
	}
}
