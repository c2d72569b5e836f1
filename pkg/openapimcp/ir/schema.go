package ir

import (
	"sort"
	"strings"
)

// Schema is a JSON Schema fragment in its decoded, generic form.
type Schema map[string]interface{}

func (s Schema) Type() string {
	if t, ok := s["type"].(string); ok {
		return t
	}
	return ""
}

func (s Schema) Properties() map[string]Schema {
	props := make(map[string]Schema)
	p, ok := s["properties"].(map[string]interface{})
	if !ok {
		return props
	}
	for k, v := range p {
		switch schema := v.(type) {
		case map[string]interface{}:
			props[k] = schema
		case Schema:
			props[k] = schema
		}
	}
	return props
}

func (s Schema) Required() []string {
	switch req := s["required"].(type) {
	case []string:
		return append([]string(nil), req...)
	case []interface{}:
		result := make([]string, 0, len(req))
		for _, r := range req {
			if str, ok := r.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return nil
}

// AllowsType reports whether the schema, or any anyOf/oneOf/allOf branch,
// admits the given JSON type.
func (s Schema) AllowsType(typ string) bool {
	if s == nil || typ == "" {
		return false
	}
	if s.Type() == typ {
		return true
	}
	if rawTypes, ok := s["type"].([]interface{}); ok {
		for _, item := range rawTypes {
			if str, ok := item.(string); ok && str == typ {
				return true
			}
		}
	}
	for _, key := range []string{"anyOf", "oneOf", "allOf"} {
		branches, ok := s[key].([]interface{})
		if !ok {
			continue
		}
		for _, candidate := range branches {
			if m, ok := candidate.(map[string]interface{}); ok && Schema(m).AllowsType(typ) {
				return true
			}
		}
	}
	return false
}

func preferJSON(order []string, schemas map[string]Schema) string {
	if len(order) == 0 {
		order = make([]string, 0, len(schemas))
		for ct := range schemas {
			order = append(order, ct)
		}
		sort.Strings(order)
	}
	for _, ct := range order {
		if strings.Contains(ct, "json") {
			return ct
		}
	}
	if len(order) > 0 {
		return order[0]
	}
	return ""
}
