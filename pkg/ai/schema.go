package ai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON Schema describing one task's output contract.
type Schema struct {
	Name     string
	compiled *jsonschema.Schema
}

// MustSchema compiles a JSON Schema document and panics on error. Intended for package-level vars.
func MustSchema(name, definition string) *Schema {
	compiled := jsonschema.MustCompileString(fmt.Sprintf("schema://%s.json", name), definition)
	return &Schema{Name: name, compiled: compiled}
}

// Validate checks raw JSON against the schema.
func (s *Schema) Validate(raw json.RawMessage) error {
	var parsed interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&parsed); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := s.compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema %s: %w", s.Name, err)
	}
	return nil
}

// Decode extracts JSON from model output, validates it against schema and unmarshals it into out.
// Every failure is reported as *ErrInvalidResponse carrying the original text.
func Decode(content string, schema *Schema, out interface{}) error {
	raw, err := ExtractJSON(content)
	if err != nil {
		return err
	}

	if schema != nil {
		if err := schema.Validate(raw); err != nil {
			return &ErrInvalidResponse{Raw: content, Err: err}
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrInvalidResponse{Raw: content, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}
