package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"text", FormatText},
		{"TINT", FormatText},
		{"human", FormatText},
		{"json", FormatJSON},
		{" JSON ", FormatJSON},
		{"auto", FormatAuto},
		{"", FormatAuto},
		{"yaml", FormatAuto},
	}
	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"loud", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, slog.LevelWarn); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsTTYBuffer(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Fatal("a bytes.Buffer is not a terminal")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, FormatJSON, slog.LevelInfo)
	l.Debug("hidden")
	l.Info("shown", "strategy", "clipboard")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["strategy"] != "clipboard" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewAutoIsJSONWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatAuto, slog.LevelInfo).Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected JSON output, got %q", buf.String())
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatText, slog.LevelInfo).Info("hello")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}

func TestSetupInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l := Setup(&buf, FormatJSON, slog.LevelInfo)
	if slog.Default() != l {
		t.Fatal("expected Setup to install its logger as the default")
	}

	slog.Info("via default")
	if !strings.Contains(buf.String(), `"msg":"via default"`) {
		t.Fatalf("expected the default logger to write to the buffer, got %q", buf.String())
	}
}
