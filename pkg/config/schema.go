package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Input formats accepted by CheckSchema.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

//go:embed schema/sigsim.schema.json
var schemaJSON string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("sigsim.schema.json", schemaJSON)
})

// CheckSchema validates a raw configuration document against the embedded
// JSON Schema. YAML input is normalized through a JSON round-trip first so
// schema types line up.
func CheckSchema(data []byte, format string) error {
	sch, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compiling embedded schema: %w", err)
	}

	var value any
	switch format {
	case FormatYAML:
		var interim any
		if err := yaml.Unmarshal(data, &interim); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
		raw, err := json.Marshal(interim)
		if err != nil {
			return fmt.Errorf("normalizing YAML document: %w", err)
		}
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("normalizing YAML document: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	default:
		return fmt.Errorf("unknown document format %q", format)
	}

	if err := sch.Validate(value); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
