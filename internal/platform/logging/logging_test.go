package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, _, err := newWithOutput("escrow", Config{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected level error")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := newWithOutput("escrow", Config{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected format error")
	}
}

func TestNewJSONTagsService(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := newWithOutput("escrow", Config{Level: "debug", Format: FormatJSON}, &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer closer.Close()

	logger.WithField("booking_id", "b-1").Info("rating recorded")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if payload["service"] != "escrow" {
		t.Fatalf("service = %v, want escrow", payload["service"])
	}
	if payload["booking_id"] != "b-1" {
		t.Fatalf("booking_id = %v, want b-1", payload["booking_id"])
	}
	if payload["msg"] != "rating recorded" {
		t.Fatalf("msg = %v, want rating recorded", payload["msg"])
	}
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escrow.log")
	var buf bytes.Buffer
	logger, closer, err := newWithOutput("escrow", Config{File: path, MaxSizeMB: 1}, &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Warn("disk check")
	if err := closer.Close(); err != nil {
		t.Fatalf("close rotator: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "disk check") {
		t.Fatalf("log file = %q, want entry", string(data))
	}
	if !strings.Contains(buf.String(), "disk check") {
		t.Fatalf("stderr = %q, want entry", buf.String())
	}
}

func TestDiscardDropsEntries(t *testing.T) {
	Discard().Error("ignored")
}
