package fields

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bazaarlens/bazaarlens/constants"
)

// BuildResultSchema returns a JSON Schema for the object the model is asked
// to produce for the given field set. Numeric fields tolerate string values
// since coercion runs after validation.
func BuildResultSchema(requested []string) map[string]any {
	props := map[string]any{
		"source": map[string]any{"type": "string"},
		"error":  map[string]any{"type": []string{"string", "null"}},
		"note":   map[string]any{"type": []string{"string", "null"}},
	}
	required := make([]string, 0, len(requested)+1)

	for _, name := range requested {
		switch TypeOf(name) {
		case constants.Decimal:
			props[name] = map[string]any{"type": []string{"number", "string", "null"}}
		case constants.Integer:
			props[name] = map[string]any{"type": []string{"integer", "string", "null"}}
		default:
			props[name] = map[string]any{"type": []string{"string", "number", "array", "null"}}
		}
		required = append(required, name)
	}
	required = append(required, "source")

	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
		"required":             required,
	}
}

// ValidateAgainstSchema checks a parsed result document against a schema
// produced by BuildResultSchema. Failures are advisory; callers log and
// continue with coercion.
func ValidateAgainstSchema(doc map[string]any, schema map[string]any) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("result.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// Round-trip so numbers validate as json.Number-free plain values.
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var v any
	if err := json.Unmarshal(docBytes, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return compiled.Validate(v)
}
