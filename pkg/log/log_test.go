package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestModuleAddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, nil))
	l.Module("executor").Info("hello", "depth", 1)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v (%s)", err, buf.String())
	}
	if entry["module"] != "executor" {
		t.Fatalf("module = %v, want executor", entry["module"])
	}
	if entry["msg"] != "hello" {
		t.Fatalf("msg = %v, want hello", entry["msg"])
	}
}

func TestWithChildLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, nil)).With("trace_id", "abc")
	l.Warn("careful")

	if !strings.Contains(buf.String(), `"trace_id":"abc"`) {
		t.Fatalf("expected trace_id in output, got %s", buf.String())
	}
}
