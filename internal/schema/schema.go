// Package schema describes the structured output requested from the remote
// service. Property order is preserved on the wire because the service tends
// to emit fields in the order they were declared.
package schema

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Type is a JSON Schema primitive type name.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema is a recursive JSON Schema descriptor.
type Schema struct {
	Type       Type                                    `json:"type,omitempty"`
	Enum       []any                                   `json:"enum,omitempty"`
	Format     string                                  `json:"format,omitempty"`
	Items      *Schema                                 `json:"items,omitempty"`
	Properties *orderedmap.OrderedMap[string, *Schema] `json:"properties,omitempty"`
	Required   []string                                `json:"required,omitempty"`
	Default    any                                     `json:"default,omitempty"`
}

// Prop is a named member used by Object.
type Prop struct {
	Name   string
	Schema *Schema
}

// P is shorthand for building a Prop.
func P(name string, s *Schema) Prop {
	return Prop{Name: name, Schema: s}
}

// Object builds an object descriptor whose properties keep the given order.
func Object(props ...Prop) *Schema {
	properties := orderedmap.New[string, *Schema]()
	for _, prop := range props {
		properties.Set(prop.Name, prop.Schema)
	}
	return &Schema{Type: TypeObject, Properties: properties}
}

// String builds a string descriptor.
func String() *Schema { return &Schema{Type: TypeString} }

// Number builds a number descriptor.
func Number() *Schema { return &Schema{Type: TypeNumber} }

// Boolean builds a boolean descriptor.
func Boolean() *Schema { return &Schema{Type: TypeBoolean} }

// Array builds an array descriptor.
func Array(items *Schema) *Schema { return &Schema{Type: TypeArray, Items: items} }

// Enum builds a string descriptor restricted to values.
func Enum(values ...string) *Schema {
	out := &Schema{Type: TypeString}
	for _, v := range values {
		out.Enum = append(out.Enum, v)
	}
	return out
}

// WithRequired sets the required member list.
func (s *Schema) WithRequired(names ...string) *Schema {
	s.Required = names
	return s
}

// WithDefault sets the default value.
func (s *Schema) WithDefault(v any) *Schema {
	s.Default = v
	return s
}

// WithFormat sets the format hint.
func (s *Schema) WithFormat(format string) *Schema {
	s.Format = format
	return s
}

// Names returns object property names in declaration order.
func (s *Schema) Names() []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	names := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Property returns the named member descriptor.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil || s.Properties == nil {
		return nil, false
	}
	return s.Properties.Get(name)
}

// Marshal serializes the descriptor as sent in the multipart "schema" field.
func Marshal(s *Schema) (string, error) {
	if s == nil {
		return "", fmt.Errorf("schema is nil")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return string(data), nil
}

// Parse decodes a descriptor from JSON, keeping property order.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &s, nil
}
