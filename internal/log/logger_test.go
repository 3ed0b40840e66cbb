package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", DebugLevel, true},
		{" INFO ", InfoLevel, true},
		{"", InfoLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"trace", InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestJSONOutputAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LoggerConfig{Level: InfoLevel, JSONOutput: true, Name: "jflow", Stderr: &buf})

	logger.Debug("hidden")
	child := logger.With("session", "s1")
	child.Info("walked", "statements", 3)
	logger.Warn("plain")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %s", len(entries), buf.String())
	}
	if entries[0]["msg"] != "walked" || entries[0]["session"] != "s1" || entries[0]["statements"] != float64(3) {
		t.Errorf("unexpected entry %v", entries[0])
	}
	if entries[0]["logger"] != "jflow" {
		t.Errorf("logger name = %v, want jflow", entries[0]["logger"])
	}
	if _, ok := entries[1]["session"]; ok {
		t.Error("fields of a child leaked into its parent")
	}
}

func TestSetLevelIsShared(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LoggerConfig{Level: ErrorLevel, JSONOutput: true, Stderr: &buf})
	child := logger.With("component", "values")

	child.Info("dropped")
	logger.SetLevel(DebugLevel)
	child.Debug("kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["msg"] != "kept" {
		t.Errorf("entries = %v, want only \"kept\"", entries)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jflow.log")
	logger := New(LoggerConfig{Level: InfoLevel, JSONOutput: true, File: path})
	logger.Info("to file", "n", 1)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to file"`) {
		t.Errorf("log file = %q, want the entry", data)
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error("nothing happens")
	logger.With("k", "v").Info("still nothing")
}
