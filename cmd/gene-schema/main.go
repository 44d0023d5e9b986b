// Command gene-schema writes the JSON Schema for garden config documents
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/lixenwraith/genegarden/config"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema, stdout when empty")
	flag.Parse()

	schema := buildSchema()
	if outPath == "" {
		data, err := encode(schema)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode schema: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}
	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{AllowAdditionalProperties: true}
	schema := reflector.Reflect(new(config.Document))
	schema.Title = "Gene Garden Config"
	schema.Description = "Engine settings, gene catalog and plant templates overlaid on the embedded defaults"
	return schema
}

func encode(schema *jsonschema.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := encode(schema)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
