// Package tool defines the unit contract for invocable tools: a name, a
// description, a parameter schema, and a single execution entry point.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler executes a tool. Arguments arrive already decoded from JSON; a
// handler may re-validate defensively. Returning an error is equivalent to
// returning an error result: the registry converts either into an isError
// result, so a misbehaving handler can never break the request path.
type Handler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// Unit is a named, schema-described, independently invocable tool.
//
// Units are constructed once at registry initialization and are immutable
// thereafter; the registry entry that holds a unit owns it exclusively.
type Unit struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Handler     Handler
}

// Definition returns the unit's wire-level tool descriptor.
func (u *Unit) Definition() *mcp.Tool {
	return &mcp.Tool{
		Name:        u.Name,
		Description: u.Description,
		InputSchema: u.Schema,
	}
}

// TextResult creates a successful result with a single text content block.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a result flagged as an error, carrying the message as text.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// Errorf creates an error result from a format string.
func Errorf(format string, args ...any) *mcp.CallToolResult {
	return ErrorResult(fmt.Sprintf(format, args...))
}

// SimpleSchema creates an object schema from a property-name to type-name map.
// All properties are required. Input format: {"a": "number", "b": "string"}.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	required := make([]string, 0, len(props))

	for name, typeName := range props {
		properties[name] = typeSchema(typeName)
		required = append(required, name)
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// Property describes one parameter for ObjectSchema.
type Property struct {
	Type        string
	Description string
	Enum        []any
	Default     any
	Required    bool
}

// ObjectSchema creates an object schema with per-property descriptions,
// enumerations, defaults, and optionality.
func ObjectSchema(props map[string]Property) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	required := make([]string, 0, len(props))

	for name, p := range props {
		s := typeSchema(p.Type)
		s.Description = p.Description

		if len(p.Enum) > 0 {
			s.Enum = p.Enum
		}

		if p.Default != nil {
			s.Default = mustRaw(p.Default)
		}

		properties[name] = s

		if p.Required {
			required = append(required, name)
		}
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// typeSchema maps a short type name to a JSON Schema node.
func typeSchema(name string) *jsonschema.Schema {
	switch name {
	case "string":
		return &jsonschema.Schema{Type: "string"}
	case "integer", "int":
		return &jsonschema.Schema{Type: "integer"}
	case "number", "float":
		return &jsonschema.Schema{Type: "number"}
	case "boolean", "bool":
		return &jsonschema.Schema{Type: "boolean"}
	case "object":
		return &jsonschema.Schema{Type: "object"}
	default:
		if len(name) > 2 && name[:2] == "[]" {
			return &jsonschema.Schema{
				Type:  "array",
				Items: typeSchema(name[2:]),
			}
		}

		return &jsonschema.Schema{Type: "string"}
	}
}

func mustRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("tool: cannot encode schema default %v: %v", v, err))
	}

	return data
}
