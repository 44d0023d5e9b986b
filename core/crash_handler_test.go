package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSafelyRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ok := Safely(logger, "payload failed", func() {
		panic("boom")
	}, "gene", "Poison")

	if ok {
		t.Fatal("expected Safely to report failure")
	}
	out := buf.String()
	if !strings.Contains(out, "payload failed") || !strings.Contains(out, "gene=Poison") || !strings.Contains(out, "boom") {
		t.Errorf("log line missing fields: %q", out)
	}
}

func TestSafelyPassesThrough(t *testing.T) {
	ran := false
	if !Safely(nil, "noop", func() { ran = true }) {
		t.Fatal("expected success")
	}
	if !ran {
		t.Error("fn not invoked")
	}
}
