package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSchemaCoversDocument(t *testing.T) {
	data, err := encode(buildSchema())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := string(data)
	for _, key := range []string{`"tick_ms"`, `"include_standard"`, `"recharge_time"`, `"modifiers"`, `"Gene Garden Config"`} {
		if !strings.Contains(text, key) {
			t.Errorf("schema missing %s", key)
		}
	}
}

func TestWriteSchemaReplacesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schema", "garden.schema.json")
	if err := writeSchema(out, buildSchema()); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not json: %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}
