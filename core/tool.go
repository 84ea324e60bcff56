package core

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
)

// ToolAdapter wraps one external capability behind a uniform invoke
// operation. Adapters validate their own arguments and return an error for
// missing input, empty results, or upstream failures; they never panic across
// the dispatch boundary on purpose (the dispatcher recovers if one does).
type ToolAdapter interface {
	Name() ToolName
	Describe() ToolDescriptor
	Invoke(ctx context.Context, args map[string]any) (map[string]any, error)
}

// ToolDescriptor is the planner-facing description of one tool: its
// identifier, what it does, and a JSON schema of its arguments.
type ToolDescriptor struct {
	Name        ToolName        `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// MustSchema reflects a JSON schema from an argument struct for use in a
// ToolDescriptor. Panics on marshal failure; schemas are built from static
// types at startup, so a failure is a programming error.
func MustSchema(v any) json.RawMessage {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	return json.RawMessage(b)
}

// ReplaceLabels substitutes {{key}} placeholders in a prompt template.
func ReplaceLabels(template string, replacements map[string]string) string {
	for key, value := range replacements {
		placeholder := "{{" + key + "}}"
		template = strings.ReplaceAll(template, placeholder, value)
	}
	return template
}
