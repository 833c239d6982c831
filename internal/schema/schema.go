// Package schema turns record shape descriptors into the structured-output
// response_format accepted by OpenAI-compatible chat completion endpoints.
package schema

// Type is a JSON Schema primitive type name.
type Type string

const (
	String  Type = "string"
	Integer Type = "integer"
	Number  Type = "number"
	Boolean Type = "boolean"
	Array   Type = "array"
	Object  Type = "object"
)

// Field describes one property of a record.
type Field struct {
	Name        string
	Type        Type
	Description string
	Required    bool
	// Items describes array elements when Type is Array.
	Items *Field
	// Fields describes nested properties when Type is Object.
	Fields []Field
}

// Shape describes the result expected from one generation call.
type Shape struct {
	Name   string
	Fields []Field
	// List marks a result that is a homogeneous list of records.
	List bool
}

// ResponseFormat is the wire-level structured-output descriptor.
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema wraps a record schema with a stable name and strict flag.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// Project builds the response format for a shape. List shapes wrap the
// record schema in an array; single shapes use the object schema directly.
func Project(s Shape) ResponseFormat {
	record := objectSchema(s.Fields)

	root := record
	if s.List {
		root = map[string]any{
			"type":  string(Array),
			"items": record,
		}
	}

	return ResponseFormat{
		Type: "json_schema",
		JSONSchema: &JSONSchema{
			Name:   s.Name,
			Strict: true,
			Schema: root,
		},
	}
}

// IsArray reports whether a projected schema describes an array result.
func (r ResponseFormat) IsArray() bool {
	if r.JSONSchema == nil {
		return false
	}
	t, _ := r.JSONSchema.Schema["type"].(string)
	return t == string(Array)
}

// objectSchema lists every property as required, as strict mode demands.
// Optional fields are expressed as nullable instead.
func objectSchema(fields []Field) map[string]any {
	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))

	for _, f := range fields {
		properties[f.Name] = fieldSchema(f)
		required = append(required, f.Name)
	}

	return map[string]any{
		"type":                 string(Object),
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func fieldSchema(f Field) map[string]any {
	var out map[string]any
	switch f.Type {
	case Object:
		out = objectSchema(f.Fields)
	case Array:
		out = map[string]any{"type": string(Array)}
		if f.Items != nil {
			out["items"] = fieldSchema(*f.Items)
		}
	default:
		out = map[string]any{"type": string(f.Type)}
	}

	if !f.Required {
		out["type"] = []string{string(f.Type), "null"}
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	return out
}
