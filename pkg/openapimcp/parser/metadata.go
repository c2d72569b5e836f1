package parser

import (
	"fmt"

	"github.com/pb33f/libopenapi/orderedmap"
	yaml "go.yaml.in/yaml/v4"
)

func convertExtensionsMap(exts *orderedmap.Map[string, *yaml.Node]) map[string]interface{} {
	if exts == nil || exts.Len() == 0 {
		return nil
	}
	result := make(map[string]interface{}, exts.Len())
	for key, node := range exts.FromOldest() {
		if node == nil {
			continue
		}
		var value interface{}
		if err := node.Decode(&value); err != nil {
			if node.Kind == yaml.ScalarNode {
				result[key] = node.Value
			}
			continue
		}
		result[key] = value
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

type versionHeader struct {
	OpenAPI string `yaml:"openapi"`
	Swagger string `yaml:"swagger"`
}

// DetectOpenAPIVersion reads the version field of a JSON or YAML document.
func DetectOpenAPIVersion(spec []byte) (string, error) {
	var header versionHeader
	if err := yaml.Unmarshal(spec, &header); err != nil {
		return "", ParseError{Message: fmt.Sprintf("invalid document: %v", err)}
	}
	if header.OpenAPI != "" {
		return header.OpenAPI, nil
	}
	if header.Swagger != "" {
		return header.Swagger, nil
	}
	return "", ParseError{Path: "openapi", Message: "missing or invalid 'openapi' field"}
}
