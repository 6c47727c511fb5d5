package vision

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildPayloadSchema returns a JSON-Schema (draft 2020-12 subset) as a generic
// map. It is passed to the model as a structured output constraint and used
// locally to gate unmarshalling. The schema is loose on value types (money
// fields accept string, number, or null) and only rejects documents that are
// structurally hopeless: non-object roots, lineItems not an array of objects.
func BuildPayloadSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"merchant":  map[string]any{"type": []string{"string", "null"}},
			"date":      map[string]any{"type": []string{"string", "null"}},
			"time":      map[string]any{"type": []string{"string", "null"}},
			"subtotal":  moneyProp(),
			"surcharge": moneyProp(),
			"total":     moneyProp(),
			"lineItems": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":     map[string]any{"type": []string{"string", "null"}},
						"price":    moneyProp(),
						"quantity": map[string]any{"type": []string{"string", "number", "integer", "null"}},
						"category": map[string]any{"type": []string{"string", "null"}},
					},
					"additionalProperties": false,
				},
			},
			"rawOcrText": map[string]any{"type": []string{"string", "null"}},
			"error":      map[string]any{"type": []string{"string", "null"}},
		},
	}
}

func moneyProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
}

// ValidateAgainstSchema validates "data" against "schemaMap".
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
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
