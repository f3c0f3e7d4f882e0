package forms

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-pagekit/entity"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Per-kind JSON schemas guarding trigger config payloads. Compiled once at
// package init; trigger create/update validates against them.
var triggerConfigSchemas = map[entity.TriggerKind]*jsonschema.Schema{
	entity.TriggerEmail: mustCompileConfigSchema("email", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipients": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "format": "email"},
			},
			"subject":  map[string]any{"type": "string"},
			"template": map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	}),
	entity.TriggerWebhook: mustCompileConfigSchema("webhook", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":     map[string]any{"type": "string", "minLength": 1},
			"method":  map[string]any{"type": "string", "enum": []any{"POST", "PUT", "PATCH", "post", "put", "patch"}},
			"headers": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
			"timeout": map[string]any{"type": "number", "exclusiveMinimum": 0},
		},
		"required":             []any{"url"},
		"additionalProperties": false,
	}),
	entity.TriggerDatabase: mustCompileConfigSchema("database", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target_type":   map[string]any{"type": "string", "minLength": 1},
			"field_mapping": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
			"title":         map[string]any{"type": "string"},
		},
		"required":             []any{"target_type"},
		"additionalProperties": false,
	}),
	entity.TriggerNotification: mustCompileConfigSchema("notification", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	}),
	entity.TriggerRedirect: mustCompileConfigSchema("redirect", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"redirect_url": map[string]any{"type": "string", "minLength": 1},
		},
		"required":             []any{"redirect_url"},
		"additionalProperties": false,
	}),
	entity.TriggerExpression: mustCompileConfigSchema("expression", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expressions": map[string]any{
				"type":                 "object",
				"minProperties":        1,
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required":             []any{"expressions"},
		"additionalProperties": false,
	}),
}

func mustCompileConfigSchema(name string, schema map[string]any) *jsonschema.Schema {
	encoded, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("forms: encode %s config schema: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	resource := name + "-config.json"
	if err := compiler.AddResource(resource, bytes.NewReader(encoded)); err != nil {
		panic(fmt.Sprintf("forms: add %s config schema: %v", name, err))
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		panic(fmt.Sprintf("forms: compile %s config schema: %v", name, err))
	}
	return compiled
}

// validateTriggerConfig checks a trigger config document against the
// schema for its kind.
func validateTriggerConfig(kind entity.TriggerKind, config map[string]any) error {
	schema, ok := triggerConfigSchemas[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTriggerKindUnknown, kind)
	}
	if config == nil {
		config = map[string]any{}
	}
	// round-trip so json.Number and typed slices validate like decoded JSON
	encoded, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("forms: encode trigger config: %w", err)
	}
	var document any
	if err := json.Unmarshal(encoded, &document); err != nil {
		return fmt.Errorf("forms: decode trigger config: %w", err)
	}
	if err := schema.Validate(document); err != nil {
		return &ValidationError{Fields: map[string]string{"config": err.Error()}}
	}
	return nil
}
