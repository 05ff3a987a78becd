// Package contract declares the JSON shapes the LLM must return and checks
// raw responses against them before anything is decoded.
package contract

import (
	"encoding/json"
)

// Type is the JSON type of a schema node.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
)

// Node is one field of a schema tree. A string node with Enum set only
// accepts the listed values.
type Node struct {
	Type        Type
	Description string
	Enum        []string
	Minimum     *float64
	Maximum     *float64
	MinItems    *int
	MaxItems    *int
	Items       *Node
	Properties  []Property
}

// Property is a named member of an object node.
type Property struct {
	Name     string
	Schema   *Node
	Optional bool
}

// Object builds an object node; properties keep their declared order.
func Object(props ...Property) *Node {
	return &Node{Type: TypeObject, Properties: props}
}

// Field is a required property.
func Field(name string, n *Node) Property { return Property{Name: name, Schema: n} }

// OptionalField may be absent or null.
func OptionalField(name string, n *Node) Property {
	return Property{Name: name, Schema: n, Optional: true}
}

func String() *Node { return &Node{Type: TypeString} }

// Number accepts any JSON number within [min, max].
func Number(min, max float64) *Node {
	return &Node{Type: TypeNumber, Minimum: &min, Maximum: &max}
}

// Integer accepts whole JSON numbers within [min, max].
func Integer(min, max float64) *Node {
	return &Node{Type: TypeInteger, Minimum: &min, Maximum: &max}
}

func Enum(values ...string) *Node { return &Node{Type: TypeString, Enum: values} }

func Array(items *Node) *Node { return &Node{Type: TypeArray, Items: items} }

// Strings is shorthand for an array of strings.
func Strings() *Node { return Array(String()) }

// Describe sets the description sent to the model.
func (n *Node) Describe(d string) *Node {
	n.Description = d
	return n
}

// Len bounds the item count of an array node.
func (n *Node) Len(min, max int) *Node {
	n.MinItems = &min
	n.MaxItems = &max
	return n
}

// Required lists the names of the non-optional properties.
func (n *Node) Required() []string {
	var out []string
	for _, p := range n.Properties {
		if !p.Optional {
			out = append(out, p.Name)
		}
	}
	return out
}

// MarshalJSON renders the node as JSON Schema.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.jsonSchema())
}

func (n *Node) jsonSchema() map[string]any {
	m := map[string]any{"type": string(n.Type)}
	if n.Description != "" {
		m["description"] = n.Description
	}
	if len(n.Enum) > 0 {
		m["enum"] = n.Enum
	}
	if n.Minimum != nil {
		m["minimum"] = *n.Minimum
	}
	if n.Maximum != nil {
		m["maximum"] = *n.Maximum
	}
	switch n.Type {
	case TypeArray:
		if n.Items != nil {
			m["items"] = n.Items.jsonSchema()
		}
		if n.MinItems != nil {
			m["minItems"] = *n.MinItems
		}
		if n.MaxItems != nil {
			m["maxItems"] = *n.MaxItems
		}
	case TypeObject:
		props := make(map[string]any, len(n.Properties))
		for _, p := range n.Properties {
			props[p.Name] = p.Schema.jsonSchema()
		}
		m["properties"] = props
		m["required"] = n.Required()
		m["additionalProperties"] = false
	}
	return m
}

// PropertyMap returns the JSON Schema "properties" object of an object node.
// Tool-calling providers take properties and required separately.
func (n *Node) PropertyMap() map[string]any {
	props := make(map[string]any, len(n.Properties))
	for _, p := range n.Properties {
		props[p.Name] = p.Schema.jsonSchema()
	}
	return props
}
