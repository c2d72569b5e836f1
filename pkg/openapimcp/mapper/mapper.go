package mapper

import (
	"strings"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

type RouteMapFunc func(route ir.HTTPRoute, decision RouteDecision) *RouteDecision

type RouteMapper struct {
	routeMaps []RouteMap
	mapFunc   RouteMapFunc
	globTags  []string
}

// NewRouteMapper evaluates routeMaps in order, first match wins. A catch-all
// tool mapping is always appended so unmatched routes stay exposed.
func NewRouteMapper(routeMaps []RouteMap) *RouteMapper {
	clone := make([]RouteMap, len(routeMaps), len(routeMaps)+1)
	copy(clone, routeMaps)
	clone = append(clone, DefaultRouteMappings()...)
	return &RouteMapper{
		routeMaps: clone,
	}
}

func (rm *RouteMapper) WithMapFunc(mapFunc RouteMapFunc) *RouteMapper {
	rm.mapFunc = mapFunc
	return rm
}

func (rm *RouteMapper) WithGlobalTags(tags ...string) *RouteMapper {
	rm.globTags = uniqueStrings(tags)
	return rm
}

func (rm *RouteMapper) matches(route ir.HTTPRoute, mapping RouteMap) bool {
	if !matchesMethods(route.Method, mapping.Methods) {
		return false
	}
	if mapping.PathPattern != nil && !mapping.PathPattern.MatchString(route.Path) {
		return false
	}
	if len(mapping.Tags) > 0 && !matchesTags(route.Tags, mapping.Tags) {
		return false
	}
	return true
}

func matchesMethods(method string, allowedMethods []string) bool {
	if len(allowedMethods) == 0 {
		return true
	}
	for _, allowed := range allowedMethods {
		if allowed == "*" || strings.EqualFold(allowed, method) {
			return true
		}
	}
	return false
}

func matchesTags(routeTags []string, requiredTags []string) bool {
	routeTagSet := make(map[string]bool, len(routeTags))
	for _, tag := range routeTags {
		routeTagSet[tag] = true
	}
	for _, required := range requiredTags {
		if !routeTagSet[required] {
			return false
		}
	}
	return true
}

type MappedRoute struct {
	Route   ir.HTTPRoute
	MCPType MCPType
	Tags    []string
}

func (rm *RouteMapper) MapRoutes(routes []ir.HTTPRoute) []MappedRoute {
	var mappedRoutes []MappedRoute
	for _, route := range routes {
		decision := rm.MapRouteDecision(route)
		if decision.MCPType == MCPTypeExclude {
			continue
		}
		mappedRoutes = append(mappedRoutes, MappedRoute{
			Route:   route,
			MCPType: decision.MCPType,
			Tags:    decision.Tags,
		})
	}
	return mappedRoutes
}

type RouteDecision struct {
	MCPType MCPType
	Tags    []string
}

func (rm *RouteMapper) MapRouteDecision(route ir.HTTPRoute) RouteDecision {
	decision := RouteDecision{
		MCPType: MCPTypeTool,
		Tags:    rm.combineTags(route, nil),
	}

	for idx := range rm.routeMaps {
		mapping := rm.routeMaps[idx]
		if !rm.matches(route, mapping) {
			continue
		}
		decision.MCPType = mapping.MCPType
		decision.Tags = rm.combineTags(route, &mapping)
		break
	}

	if rm.mapFunc != nil {
		if override := rm.mapFunc(route, decision); override != nil {
			decision = *override
		}
	}

	decision.Tags = uniqueStrings(decision.Tags)
	return decision
}

func (rm *RouteMapper) combineTags(route ir.HTTPRoute, mapping *RouteMap) []string {
	var combined []string
	combined = append(combined, route.Tags...)
	if mapping != nil {
		combined = append(combined, mapping.MCPTags...)
	}
	combined = append(combined, rm.globTags...)
	return uniqueStrings(combined)
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
