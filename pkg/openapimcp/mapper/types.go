package mapper

import (
	"fmt"
	"regexp"
	"strings"
)

type MCPType string

const (
	MCPTypeTool    MCPType = "tool"
	MCPTypeExclude MCPType = "exclude"
)

// ParseMCPType accepts the spellings used in configuration files.
func ParseMCPType(value string) (MCPType, error) {
	switch MCPType(strings.ToLower(strings.TrimSpace(value))) {
	case "", MCPTypeTool:
		return MCPTypeTool, nil
	case MCPTypeExclude:
		return MCPTypeExclude, nil
	default:
		return "", fmt.Errorf("unknown mcp_type %q (want %q or %q)", value, MCPTypeTool, MCPTypeExclude)
	}
}

// RouteMap decides how routes matching all of its criteria are exposed.
type RouteMap struct {
	Methods     []string
	PathPattern *regexp.Regexp
	Tags        []string
	MCPType     MCPType
	MCPTags     []string
}

func NewRouteMap() *RouteMap {
	return &RouteMap{
		Methods:     []string{"*"},
		PathPattern: regexp.MustCompile(".*"),
		MCPType:     MCPTypeTool,
	}
}

func (rm *RouteMap) WithMethods(methods ...string) *RouteMap {
	rm.Methods = methods
	return rm
}

func (rm *RouteMap) WithPathPattern(pattern string) *RouteMap {
	rm.PathPattern = regexp.MustCompile(pattern)
	return rm
}

func (rm *RouteMap) WithTags(tags ...string) *RouteMap {
	rm.Tags = tags
	return rm
}

func (rm *RouteMap) WithMCPType(mcpType MCPType) *RouteMap {
	rm.MCPType = mcpType
	return rm
}

func (rm *RouteMap) WithMCPTags(tags ...string) *RouteMap {
	rm.MCPTags = tags
	return rm
}
