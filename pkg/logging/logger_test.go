package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONLogger_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("scoring started", HostIP("10.0.0.1"), Candidates(3))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if entry["msg"] != "scoring started" {
		t.Errorf("msg: got %v", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level: got %v", entry["level"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok {
		t.Fatal("fields missing")
	}
	if fields["host_ip"] != "10.0.0.1" {
		t.Errorf("host_ip: got %v", fields["host_ip"])
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("Lower-level entries should be filtered")
	}
	if !strings.Contains(out, "kept") {
		t.Error("Warn entry should be written")
	}
}

func TestJSONLogger_WithPresetsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(RunID("run-1"))
	child.Info("hello")

	if !strings.Contains(buf.String(), "run-1") {
		t.Error("Preset field missing from child logger output")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DebugLevel {
		t.Error("debug should parse to DebugLevel")
	}
	if ParseLevel("nonsense") != InfoLevel {
		t.Error("Unknown level should default to InfoLevel")
	}
}
