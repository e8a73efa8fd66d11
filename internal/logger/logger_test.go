package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{in: "debug", want: slog.LevelDebug, ok: true},
		{in: "", want: slog.LevelInfo, ok: true},
		{in: "WARN", want: slog.LevelWarn, ok: true},
		{in: "error", want: slog.LevelError, ok: true},
		{in: "loud", want: slog.LevelInfo, ok: false},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseLevel(%q) err=%v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
}

// TestInitWriter mutates the global logger, so it does not run in parallel.
func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Writer: &buf, Level: slog.LevelWarn}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer func() { _ = Init(Options{Writer: &bytes.Buffer{}}) }()

	Info("hidden")
	Warn("shown", "stage", "1-1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message passed a warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "stage=1-1") {
		t.Fatalf("unexpected output %q", out)
	}
}
