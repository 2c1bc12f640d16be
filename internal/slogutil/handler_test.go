package slogutil

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("evaluated rule", "rule", "enum_variant_added", "findings", 2)

	want := "INFO  evaluated rule rule=enum_variant_added findings=2\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestHandler_Levels(t *testing.T) {
	tests := []struct {
		log  func(*slog.Logger)
		want string
	}{
		{func(l *slog.Logger) { l.Debug("m") }, "DEBUG m\n"},
		{func(l *slog.Logger) { l.Info("m") }, "INFO  m\n"},
		{func(l *slog.Logger) { l.Warn("m") }, "WARN  m\n"},
		{func(l *slog.Logger) { l.Error("m") }, "ERROR m\n"},
		{func(l *slog.Logger) { l.Log(context.Background(), slog.LevelWarn+2, "m") }, "WARN  m\n"},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.want), func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(&buf, slog.LevelDebug))
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("records below warn should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("warn and error should be included, got: %s", output)
	}
}

func TestHandler_Values(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("rule failed",
		"rule", "enum_missing",
		"error", errors.New("index out of range"),
		"empty", "",
		"took", 1500*time.Millisecond,
	)

	output := buf.String()
	for _, want := range []string{
		"rule=enum_missing",
		`error="index out of range"`,
		`empty=""`,
		"took=1.5s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s: %s", want, output)
		}
	}
}

func TestHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).WithGroup("eval").With("workers", 4)

	logger.Info("started", slog.Group("rule", "id", "repr_c_removed", "findings", 1))

	want := "INFO  started eval.workers=4 eval.rule.id=repr_c_removed eval.rule.findings=1\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, slog.LevelInfo)
	child := base.With("crate", "krate")

	child.Info("a")
	base.Info("b")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasSuffix(lines[0], "crate=krate") || strings.Contains(lines[1], "crate") {
		t.Errorf("attrs leaked between loggers: %q", lines)
	}
}

func TestHandler_Time(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, Options{Level: slog.LevelInfo, Time: true})

	r := slog.NewRecord(time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC), slog.LevelInfo, "tick", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if want := "12:30:45.000 INFO  tick\n"; buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestHandler_NoColorByDefault(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Warn("careful")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("uncolored handler wrote escape codes: %q", buf.String())
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.expected {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		expected  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, slog.LevelDebug},
		{0, true, Silent},
		{5, true, Silent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.expected {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.expected)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not enable any level")
	}
	logger.Error("dropped")
}

func TestNewFormatLogger(t *testing.T) {
	var buf bytes.Buffer
	NewFormatLogger(&buf, slog.LevelInfo, "json", false).Info("hello", "k", "v")

	output := buf.String()
	if !strings.HasPrefix(output, "{") || !strings.Contains(output, `"k":"v"`) {
		t.Errorf("json format should emit JSON, got: %s", output)
	}

	buf.Reset()
	NewFormatLogger(&buf, slog.LevelInfo, "human", false).Info("hello")
	if buf.String() != "INFO  hello\n" {
		t.Errorf("human format should use the terminal handler, got: %q", buf.String())
	}
}
