package factory

import (
	"strings"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/parser"
)

var outputStatuses = []string{"200", "201", "202", "203", "204"}

// combineSchemas flattens parameters and JSON body properties into one
// object schema. A parameter whose name collides with a body property is
// exposed as "<name>__<location>".
func (cf *ComponentFactory) combineSchemas(route ir.HTTPRoute) (ir.Schema, map[string]ir.ParamMapping) {
	properties := make(map[string]interface{})
	paramMap := make(map[string]ir.ParamMapping)
	var required []string

	bodySchema := requestBodySchema(route)
	bodyProps := bodySchema.Properties()

	for _, param := range route.Parameters {
		name := param.Name
		if _, clash := bodyProps[name]; clash {
			name = param.Name + "__" + param.In
		}

		paramSchema := ir.Schema{}
		for k, v := range param.Schema {
			paramSchema[k] = v
		}
		if _, ok := paramSchema["description"]; !ok && param.Description != "" {
			paramSchema["description"] = param.Description
		}
		if param.Deprecated {
			paramSchema["deprecated"] = true
		}
		properties[name] = map[string]interface{}(paramSchema)

		if param.Required {
			required = append(required, name)
		}
		paramMap[name] = ir.ParamMapping{
			OpenAPIName: param.Name,
			Location:    param.In,
			IsSuffixed:  name != param.Name,
		}
	}

	for name, propSchema := range bodyProps {
		properties[name] = map[string]interface{}(propSchema)
		paramMap[name] = ir.ParamMapping{
			OpenAPIName: name,
			Location:    ir.LocationBody,
		}
	}
	if route.RequestBody != nil && route.RequestBody.Required {
		required = append(required, bodySchema.Required()...)
	}

	schema := ir.Schema{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, paramMap
}

func requestBodySchema(route ir.HTTPRoute) ir.Schema {
	if route.RequestBody == nil {
		return nil
	}
	contentType := route.RequestBody.PreferredContentType()
	if contentType == "" {
		return nil
	}
	return route.RequestBody.ContentSchemas[contentType]
}

// extractOutputSchema returns the JSON schema of the first success response
// and whether results must be wrapped under "result".
func (cf *ComponentFactory) extractOutputSchema(route ir.HTTPRoute) (ir.Schema, bool) {
	for _, status := range outputStatuses {
		response, ok := route.Responses[status]
		if !ok {
			continue
		}
		contentType := response.PreferredContentType()
		if !strings.Contains(contentType, "json") {
			return nil, false
		}
		schema := response.ContentSchemas[contentType]
		if len(schema) == 0 {
			return nil, false
		}
		return parser.WrapNonObjectSchema(schema)
	}
	return nil, false
}
