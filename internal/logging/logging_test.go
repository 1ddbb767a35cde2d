package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		wantErr  bool
	}{
		{input: "", expected: slog.LevelInfo},
		{input: "info", expected: slog.LevelInfo},
		{input: " DEBUG ", expected: slog.LevelDebug},
		{input: "warn", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, level)
			}
		})
	}
}

func TestConfigure(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger, err := Configure("warn", &buf)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	logger.Info("hidden")
	slog.Warn("shown", "log", "a.events.jsonl")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "log=a.events.jsonl") {
		t.Errorf("expected warn record on default logger, got %q", out)
	}
}
