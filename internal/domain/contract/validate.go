package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrSchemaViolation means the model returned something the contract does not allow.
var ErrSchemaViolation = errors.New("response violates schema")

// SchemaError points at the first field that broke the contract.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s at %s: %s", ErrSchemaViolation, e.Path, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaViolation }

// Normalize trims whitespace and markdown code fences around a JSON payload.
func Normalize(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		if parts := strings.SplitN(s, "\n", 2); len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return []byte(s)
}

// Validate checks raw JSON against n without decoding it.
func Validate(raw []byte, n *Node) error {
	if !gjson.ValidBytes(raw) {
		return &SchemaError{Path: "$", Reason: "not valid JSON"}
	}
	return validate(gjson.ParseBytes(raw), n, "$")
}

// Parse validates raw against n and decodes it into out. Nothing is coerced:
// any mismatch is returned as a *SchemaError.
func Parse(raw []byte, n *Node, out any) error {
	raw = Normalize(raw)
	if err := Validate(raw, n); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &SchemaError{Path: "$", Reason: err.Error()}
	}
	return nil
}

func validate(v gjson.Result, n *Node, path string) error {
	switch n.Type {
	case TypeObject:
		if !v.IsObject() {
			return &SchemaError{Path: path, Reason: "expected object"}
		}
		fields := v.Map()
		for _, p := range n.Properties {
			child, ok := fields[p.Name]
			if !ok || child.Type == gjson.Null {
				if p.Optional {
					continue
				}
				return &SchemaError{Path: path + "." + p.Name, Reason: "required field missing"}
			}
			if err := validate(child, p.Schema, path+"."+p.Name); err != nil {
				return err
			}
		}
	case TypeArray:
		if !v.IsArray() {
			return &SchemaError{Path: path, Reason: "expected array"}
		}
		items := v.Array()
		if n.MinItems != nil && len(items) < *n.MinItems {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("expected at least %d items, got %d", *n.MinItems, len(items))}
		}
		if n.MaxItems != nil && len(items) > *n.MaxItems {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("expected at most %d items, got %d", *n.MaxItems, len(items))}
		}
		if n.Items == nil {
			return nil
		}
		for i, item := range items {
			if err := validate(item, n.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case TypeString:
		if v.Type != gjson.String {
			return &SchemaError{Path: path, Reason: "expected string"}
		}
		if len(n.Enum) > 0 && !slices.Contains(n.Enum, v.Str) {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%q is not one of %s", v.Str, strings.Join(n.Enum, ", "))}
		}
	case TypeNumber, TypeInteger:
		if v.Type != gjson.Number {
			return &SchemaError{Path: path, Reason: "expected number"}
		}
		if n.Type == TypeInteger && v.Num != math.Trunc(v.Num) {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%v is not an integer", v.Num)}
		}
		if n.Minimum != nil && v.Num < *n.Minimum {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%v is below minimum %v", v.Num, *n.Minimum)}
		}
		if n.Maximum != nil && v.Num > *n.Maximum {
			return &SchemaError{Path: path, Reason: fmt.Sprintf("%v is above maximum %v", v.Num, *n.Maximum)}
		}
	default:
		return &SchemaError{Path: path, Reason: "unknown schema type " + string(n.Type)}
	}
	return nil
}
