package nativeselection

import (
	"errors"
	"testing"
)

type fakeRanges struct {
	ranges []string
	err    error
}

func (f fakeRanges) SelectedRanges() ([]string, error) { return f.ranges, f.err }

func TestAccessibilityJoinsRanges(t *testing.T) {
	s := &accessibilityStrategy{name: "ui-automation", query: fakeRanges{ranges: []string{"Hello ", "World"}}}
	text, err := s.Retrieve()
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if text != "Hello World" {
		t.Fatalf("Expected %q, got %q", "Hello World", text)
	}
}

func TestAccessibilityNoRanges(t *testing.T) {
	s := &accessibilityStrategy{name: "accessibility", query: fakeRanges{}}
	text, err := s.Retrieve()
	if err != nil || text != "" {
		t.Fatalf("Expected empty result, got %q, %v", text, err)
	}
}

func TestAccessibilityError(t *testing.T) {
	s := &accessibilityStrategy{name: "accessibility", query: fakeRanges{err: ErrUnavailable}}
	if _, err := s.Retrieve(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
}

func TestAccessibilityThenTransaction(t *testing.T) {
	cb := &fakeClipboard{}
	cb.setText("abc")

	sel := New(WithStrategies(
		&accessibilityStrategy{name: "accessibility", query: fakeRanges{err: ErrUnavailable}},
		newTestTransaction(cb, copierFunc(func() error {
			cb.setText("Hello")
			return nil
		}), &sleepCounter{}),
	))

	if got := sel.Text(); got != "Hello" {
		t.Fatalf("Expected %q, got %q", "Hello", got)
	}
	if cb.text != "abc" {
		t.Fatalf("Expected clipboard restored to %q, got %q", "abc", cb.text)
	}
}
