package parser

import (
	"encoding/json"

	"github.com/pb33f/libopenapi/datamodel/high/base"
	"sigs.k8s.io/yaml"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

// convertSchema renders schema with every $ref inlined and rewrites it into
// plain JSON Schema. Schemas that cannot be inlined (circular references)
// degrade to an unconstrained schema.
func (p *Parser) convertSchema(schema *base.Schema) ir.Schema {
	if schema == nil {
		return ir.Schema{}
	}

	rendered, err := schema.RenderInline()
	if err != nil {
		return ir.Schema{}
	}

	data, err := yaml.YAMLToJSON(rendered)
	if err != nil {
		return ir.Schema{}
	}

	var schemaMap map[string]interface{}
	if err := json.Unmarshal(data, &schemaMap); err != nil || schemaMap == nil {
		return ir.Schema{}
	}

	return ConvertToJSONSchema(schemaMap, p.isOpenAPI30())
}

// ConvertToJSONSchema rewrites the OpenAPI 3.0 dialect (nullable, boolean
// exclusive bounds) into JSON Schema and drops annotation-only keywords the
// validator does not understand.
func ConvertToJSONSchema(openAPISchema map[string]interface{}, isOpenAPI30 bool) ir.Schema {
	result := make(ir.Schema, len(openAPISchema))

	for key, value := range openAPISchema {
		switch key {
		case "nullable", "discriminator", "xml", "externalDocs":
			continue
		case "type":
			if types, ok := value.([]interface{}); ok && len(types) == 1 {
				result[key] = types[0]
				continue
			}
			result[key] = value
		case "example":
			if isOpenAPI30 {
				result["examples"] = []interface{}{value}
				continue
			}
			result[key] = value
		case "exclusiveMinimum", "exclusiveMaximum":
			if flag, ok := value.(bool); ok {
				if flag {
					bound := "minimum"
					if key == "exclusiveMaximum" {
						bound = "maximum"
					}
					if limit, ok := openAPISchema[bound]; ok {
						result[key] = limit
					}
				}
				continue
			}
			result[key] = value
		case "properties", "patternProperties", "$defs", "definitions":
			result[key] = convertSchemaMap(value, isOpenAPI30)
		case "items", "additionalProperties", "not", "contains", "propertyNames", "if", "then", "else":
			result[key] = convertSchemaValue(value, isOpenAPI30)
		case "allOf", "anyOf", "oneOf", "prefixItems":
			if schemas, ok := value.([]interface{}); ok {
				converted := make([]interface{}, len(schemas))
				for i, schema := range schemas {
					converted[i] = convertSchemaValue(schema, isOpenAPI30)
				}
				result[key] = converted
				continue
			}
			result[key] = value
		default:
			result[key] = value
		}
	}

	// an exclusive bound replaces the inclusive one it was attached to
	for _, pair := range [][2]string{{"exclusiveMinimum", "minimum"}, {"exclusiveMaximum", "maximum"}} {
		if flag, ok := openAPISchema[pair[0]].(bool); ok && flag {
			delete(result, pair[1])
		}
	}

	if isOpenAPI30 && openAPISchema["nullable"] == true {
		return nullable(result)
	}
	return result
}

func convertSchemaValue(value interface{}, isOpenAPI30 bool) interface{} {
	if m, ok := value.(map[string]interface{}); ok {
		return map[string]interface{}(ConvertToJSONSchema(m, isOpenAPI30))
	}
	return value
}

func convertSchemaMap(value interface{}, isOpenAPI30 bool) interface{} {
	props, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	converted := make(map[string]interface{}, len(props))
	for name, schema := range props {
		converted[name] = convertSchemaValue(schema, isOpenAPI30)
	}
	return converted
}

func nullable(schema ir.Schema) ir.Schema {
	switch t := schema["type"].(type) {
	case string:
		schema["type"] = []interface{}{t, "null"}
		if enum, ok := schema["enum"].([]interface{}); ok {
			schema["enum"] = append(enum, nil)
		}
		return schema
	case nil:
		return ir.Schema{"anyOf": []interface{}{map[string]interface{}(schema), map[string]interface{}{"type": "null"}}}
	default:
		return schema
	}
}

func IsObjectType(schema ir.Schema) bool {
	if schema.Type() == "object" {
		return true
	}
	if rawTypes, ok := schema["type"].([]interface{}); ok {
		for _, v := range rawTypes {
			if s, ok := v.(string); ok && s == "object" {
				return true
			}
		}
	}
	_, hasProps := schema["properties"].(map[string]interface{})
	return hasProps
}

// WrapNonObjectSchema wraps schemas MCP cannot use as structured output
// under a single "result" property.
func WrapNonObjectSchema(schema ir.Schema) (ir.Schema, bool) {
	if IsObjectType(schema) {
		return schema, false
	}
	return ir.Schema{
		"type": "object",
		"properties": map[string]interface{}{
			"result": map[string]interface{}(schema),
		},
		"required": []interface{}{"result"},
	}, true
}
