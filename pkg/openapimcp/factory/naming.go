package factory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

const maxToolNameLength = 56

// nameExtension lets a document pin an operation's tool name.
const nameExtension = "x-mcp-name"

var (
	separatorPattern = regexp.MustCompile(`[\s\-\./]+`)
	invalidPattern   = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	repeatPattern    = regexp.MustCompile(`_+`)
)

func (cf *ComponentFactory) generateName(route ir.HTTPRoute) string {
	slug := slugify(cf.resolveBaseName(route))
	if slug == "" {
		slug = slugify(fallbackNameFromRoute(route))
	}
	if slug == "" {
		slug = "operation"
	}
	if len(slug) > maxToolNameLength {
		slug = strings.TrimRight(slug[:maxToolNameLength], "_")
	}

	// A suffixed candidate may already belong to another route whose base
	// name looks like "<slug>_<n>", so keep counting until one is free.
	count := cf.nameCounter[slug]
	name := slug
	if count > 0 {
		name = fmt.Sprintf("%s_%d", slug, count+1)
	}
	for cf.nameTaken(name) {
		count++
		name = fmt.Sprintf("%s_%d", slug, count+1)
	}
	cf.nameCounter[slug] = count + 1
	cf.usedNames[name] = struct{}{}
	return name
}

func (cf *ComponentFactory) nameTaken(name string) bool {
	_, ok := cf.usedNames[name]
	return ok
}

func (cf *ComponentFactory) resolveBaseName(route ir.HTTPRoute) string {
	if name, ok := cf.lookupCustomName(route); ok {
		return name
	}
	if name, ok := route.Extensions[nameExtension].(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	if route.OperationID != "" {
		return trimOperationSuffix(route.OperationID)
	}
	if route.Summary != "" {
		return route.Summary
	}
	if route.Description != "" {
		return route.Description
	}
	return fallbackNameFromRoute(route)
}

// trimOperationSuffix drops generator suffixes such as "coins_list__get".
func trimOperationSuffix(operationID string) string {
	if idx := strings.Index(operationID, "__"); idx > 0 {
		return operationID[:idx]
	}
	return operationID
}

func (cf *ComponentFactory) lookupCustomName(route ir.HTTPRoute) (string, bool) {
	if len(cf.customNames) == 0 {
		return "", false
	}

	var candidates []string
	if opID := strings.TrimSpace(route.OperationID); opID != "" {
		candidates = append(candidates, opID, trimOperationSuffix(opID))
	}
	if path := strings.TrimSpace(route.Path); path != "" {
		upper := strings.ToUpper(route.Method)
		lower := strings.ToLower(route.Method)
		candidates = append(candidates,
			upper+" "+path,
			lower+" "+path,
			upper+":"+path,
			lower+":"+path,
			path,
		)
	}

	for _, key := range candidates {
		if name, ok := cf.customNames[key]; ok {
			return name, true
		}
	}
	return "", false
}

func fallbackNameFromRoute(route ir.HTTPRoute) string {
	method := strings.ToLower(strings.TrimSpace(route.Method))
	if method == "" {
		method = "operation"
	}
	path := strings.Trim(strings.TrimSpace(route.Path), "/")
	if path == "" {
		path = "root"
	}
	path = strings.NewReplacer("{", "", "}", "").Replace(path)
	return method + "_" + path
}

func normalizeCustomNames(names map[string]string) map[string]string {
	normalized := make(map[string]string, len(names))
	for key, value := range names {
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

func slugify(text string) string {
	slug := separatorPattern.ReplaceAllString(text, "_")
	slug = invalidPattern.ReplaceAllString(slug, "")
	slug = repeatPattern.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}
