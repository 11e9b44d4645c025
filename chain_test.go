package nativeselection

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func fixed(name, text string, err error) Strategy {
	return StrategyFunc(name, func() (string, error) { return text, err })
}

func TestChainFirstNonEmptyWins(t *testing.T) {
	var calls []string
	record := func(name, text string) Strategy {
		return StrategyFunc(name, func() (string, error) {
			calls = append(calls, name)
			return text, nil
		})
	}

	c := chain{strategies: []Strategy{
		record("a", ""),
		record("b", "Hello"),
		record("c", "never"),
	}}
	if got := c.run(); got != "Hello" {
		t.Fatalf("Expected %q, got %q", "Hello", got)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Fatalf("Unexpected call order %v", calls)
	}
}

func TestChainFailureAdvances(t *testing.T) {
	c := chain{strategies: []Strategy{
		fixed("accessibility", "", fmt.Errorf("%w: permission denied", ErrUnavailable)),
		fixed("clipboard", "Hello", nil),
	}}
	if got := c.run(); got != "Hello" {
		t.Fatalf("Expected %q, got %q", "Hello", got)
	}
}

func TestChainAllFail(t *testing.T) {
	c := chain{strategies: []Strategy{
		fixed("a", "", ErrNotFound),
		fixed("b", "", ErrAction),
		fixed("c", "   ", nil),
	}}
	if got := c.run(); got != "" {
		t.Fatalf("Expected empty, got %q", got)
	}
}

func TestChainEmpty(t *testing.T) {
	if got := (chain{}).run(); got != "" {
		t.Fatalf("Expected empty, got %q", got)
	}
}

func TestChainTrims(t *testing.T) {
	c := chain{strategies: []Strategy{fixed("a", "\x00 Hello World\n\t\x00", nil)}}
	if got := c.run(); got != "Hello World" {
		t.Fatalf("Expected %q, got %q", "Hello World", got)
	}
}

func TestChainKeepsInnerWhitespace(t *testing.T) {
	c := chain{strategies: []Strategy{fixed("a", "  line one\n\nline two  ", nil)}}
	if got := c.run(); got != "line one\n\nline two" {
		t.Fatalf("Unexpected result %q", got)
	}
}

func TestChainRecoversPanic(t *testing.T) {
	c := chain{strategies: []Strategy{
		StrategyFunc("broken", func() (string, error) { panic("nil element") }),
		fixed("clipboard", "ok", nil),
	}}
	if got := c.run(); got != "ok" {
		t.Fatalf("Expected %q, got %q", "ok", got)
	}
}

func TestRetrievePanicIsActionError(t *testing.T) {
	_, err := retrieve(StrategyFunc("broken", func() (string, error) { panic("boom") }))
	if !errors.Is(err, ErrAction) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Expected ErrAction mentioning the panic, got %v", err)
	}
}

func TestChainLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := chain{
		strategies: []Strategy{
			fixed("quiet", "", ErrNotFound),
			fixed("loud", "", ErrUnavailable),
		},
		logger: log,
	}
	c.run()

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=\"selection strategy failed\" strategy=quiet",
		"level=WARN msg=\"selection strategy failed\" strategy=loud",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q, got:\n%s", want, out)
		}
	}
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"\x00\x00":    "",
		" \t\r\n":     "",
		"abc":         "abc",
		"abc\x00\x00": "abc",
		" abc ":       "abc",
		"a\x00b":      "a\x00b",
	}
	for in, want := range tests {
		if got := clean(in); got != want {
			t.Errorf("clean(%q) = %q, want %q", in, got, want)
		}
	}
}
