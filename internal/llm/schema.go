package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// UserFieldsSchema describes the reply the user-details prompt asks for.
// Values are nullable strings; numbers are tolerated because models often
// answer "age" as a bare number.
func UserFieldsSchema() map[string]any {
	props := map[string]any{}
	for _, k := range UserFieldKeys {
		props[k] = map[string]any{"type": []any{"string", "number", "null"}}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             UserFieldKeys,
	}
}

// PANSchema describes the reply the PAN prompt asks for.
func PANSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"pan": map[string]any{
				"type":    []any{"string", "null"},
				"pattern": `^[A-Za-z]{5}[0-9]{4}[A-Za-z]$`,
			},
			"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{"pan", "confidence_score"},
	}
}

// SchemaFor returns the reply contract for a task.
func SchemaFor(task Task) map[string]any {
	if task == TaskPANFields {
		return PANSchema()
	}
	return UserFieldsSchema()
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// CheckContract validates already-parsed fields against the task's schema.
// It is advisory: the caller logs the result and keeps going.
func CheckContract(task Task, fields map[string]any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	return ValidateJSONAgainstSchema(SchemaFor(task), data)
}
