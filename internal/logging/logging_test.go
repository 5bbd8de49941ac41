package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewHandler_Format(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(string) bool
	}{
		{
			name:   "json",
			format: "json",
			check: func(out string) bool {
				var rec map[string]any
				return json.Unmarshal([]byte(out), &rec) == nil && rec["msg"] == "hello"
			},
		},
		{
			name:   "text",
			format: "text",
			check: func(out string) bool {
				return strings.Contains(out, "msg=hello")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(newHandler(&buf, Options{Level: slog.LevelInfo, Format: tt.format}))
			logger.Info("hello")
			if !tt.check(buf.String()) {
				t.Errorf("unexpected %s output: %q", tt.format, buf.String())
			}
		})
	}
}

func TestNewHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, Options{Level: slog.LevelWarn}))
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record should be filtered at warn level, got %q", buf.String())
	}
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer := New(Options{Level: slog.LevelInfo, Format: "json", File: path})
	logger.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file missing record: %q", string(data))
	}
}
