package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"WARNING", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{FormatConsole, FormatJSON} {
		logger, err := New("warn", format)
		if err != nil {
			t.Fatalf("New(%q) error = %v", format, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("New(%q) enables info at warn level", format)
		}
		if !logger.Core().Enabled(zapcore.ErrorLevel) {
			t.Errorf("New(%q) disables error at warn level", format)
		}
	}

	if _, err := New("info", "xml"); err == nil {
		t.Error("New() error = nil for unknown format")
	}
	if _, err := New("loud", FormatJSON); err == nil {
		t.Error("New() error = nil for unknown level")
	}
}

func TestNewWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "info", FormatJSON)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Info("class created", zap.String("class", "A"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if entry["msg"] != "class created" || entry["class"] != "A" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, "debug", FormatConsole)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	logger.Debug("mutator registered", zap.String("mutator", "static"))

	out := buf.String()
	if !strings.Contains(out, "mutator registered") || !strings.Contains(out, `"mutator": "static"`) {
		t.Errorf("output = %q", out)
	}
}
