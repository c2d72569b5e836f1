package parser

import (
	"fmt"

	yaml "go.yaml.in/yaml/v4"
)

// HTTPMethods are the path item keys that declare an operation.
var HTTPMethods = []string{"get", "post", "put", "delete", "patch", "head", "options", "trace"}

// CountEndpoints counts path/method pairs in a decoded document. Keys other
// than the eight HTTP methods (parameters, summary, $ref, ...) are ignored,
// as are path items that are not objects.
func CountEndpoints(doc map[string]interface{}) int {
	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		return 0
	}

	total := 0
	for _, item := range paths {
		pathItem, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		for _, method := range HTTPMethods {
			if _, declared := pathItem[method]; declared {
				total++
			}
		}
	}
	return total
}

// CountEndpointsInSpec decodes a JSON or YAML document and counts its endpoints.
func CountEndpointsInSpec(spec []byte) (int, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return 0, fmt.Errorf("failed to decode spec: %w", err)
	}
	return CountEndpoints(doc), nil
}
