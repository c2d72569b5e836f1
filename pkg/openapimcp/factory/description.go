package factory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

func (cf *ComponentFactory) formatDescription(route ir.HTTPRoute) string {
	var parts []string

	switch {
	case route.Description != "":
		parts = append(parts, strings.TrimSpace(route.Description))
	case route.Summary != "":
		parts = append(parts, route.Summary)
	default:
		parts = append(parts, fmt.Sprintf("%s %s", strings.ToUpper(route.Method), route.Path))
	}

	if route.RequestBody != nil && route.RequestBody.Description != "" {
		parts = append(parts, "**Request Body:** "+route.RequestBody.Description)
	}

	if len(route.Responses) > 0 {
		statuses := make([]string, 0, len(route.Responses))
		for status := range route.Responses {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)

		var lines []string
		for _, status := range statuses {
			if desc := route.Responses[status].Description; desc != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", status, desc))
			}
		}
		if len(lines) > 0 {
			parts = append(parts, "**Responses:**\n"+strings.Join(lines, "\n"))
		}
	}

	if len(route.Tags) > 0 {
		parts = append(parts, "**Tags:** "+strings.Join(route.Tags, ", "))
	}

	return strings.Join(parts, "\n\n")
}
