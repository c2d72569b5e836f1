package factory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/mapper"
)

func TestGenerateNamePrefersOperationID(t *testing.T) {
	cf := NewComponentFactory(nil, "")

	tests := []struct {
		name  string
		route ir.HTTPRoute
		want  string
	}{
		{"operation id", ir.HTTPRoute{Method: "GET", Path: "/coins/list", OperationID: "coins-list"}, "coins_list"},
		{"generator suffix", ir.HTTPRoute{Method: "GET", Path: "/ping", OperationID: "ping__get"}, "ping"},
		{"summary", ir.HTTPRoute{Method: "GET", Path: "/global", Summary: "Crypto Global Market Data"}, "Crypto_Global_Market_Data"},
		{"description", ir.HTTPRoute{Method: "GET", Path: "/search", Description: "Search for coins."}, "Search_for_coins"},
		{"fallback", ir.HTTPRoute{Method: "GET", Path: "/coins/{id}/tickers"}, "get_coins_id_tickers"},
		{"extension", ir.HTTPRoute{Method: "GET", Path: "/exchanges", OperationID: "exchanges", Extensions: map[string]interface{}{"x-mcp-name": "list exchanges"}}, "list_exchanges"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cf.generateName(tt.route))
		})
	}
}

func TestGenerateNameDeduplicates(t *testing.T) {
	cf := NewComponentFactory(nil, "")
	route := ir.HTTPRoute{Method: "GET", Path: "/ping", OperationID: "ping"}

	assert.Equal(t, "ping", cf.generateName(route))
	assert.Equal(t, "ping_2", cf.generateName(route))
	assert.Equal(t, "ping_3", cf.generateName(route))
}

func TestGenerateNameSkipsNamesAlreadyAssigned(t *testing.T) {
	cf := NewComponentFactory(nil, "")

	assert.Equal(t, "coins_list", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/a", Summary: "coins list"}))
	assert.Equal(t, "coins_list_2", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/b", Summary: "coins list"}))
	assert.Equal(t, "coins_list_2_2", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/c", OperationID: "coins_list_2"}))

	cf = NewComponentFactory(nil, "")
	assert.Equal(t, "coins_list_2", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/c", OperationID: "coins_list_2"}))
	assert.Equal(t, "coins_list", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/a", Summary: "coins list"}))
	assert.Equal(t, "coins_list_3", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/b", Summary: "coins list"}))
}

func TestCreateToolsNamesAreUnique(t *testing.T) {
	cf := NewComponentFactory(nil, "https://api.coingecko.com/api/v3")
	routes := []ir.HTTPRoute{
		{Method: "GET", Path: "/a", Summary: "coins list"},
		{Method: "GET", Path: "/b", Summary: "coins list"},
		{Method: "GET", Path: "/c", OperationID: "coins_list_2"},
	}
	mapped := make([]mapper.MappedRoute, 0, len(routes))
	for _, route := range routes {
		mapped = append(mapped, mapper.MappedRoute{Route: route, MCPType: mapper.MCPTypeTool})
	}

	tools, err := cf.CreateTools(mapped)
	require.NoError(t, err)
	require.Len(t, tools, 3)

	seen := make(map[string]string)
	for _, tool := range tools {
		name := tool.Tool().Name
		if other, dup := seen[name]; dup {
			t.Fatalf("tool name %q used by %s and %s", name, other, tool.Route().Path)
		}
		seen[name] = tool.Route().Path
	}
}

func TestGenerateNameTruncates(t *testing.T) {
	cf := NewComponentFactory(nil, "")
	name := cf.generateName(ir.HTTPRoute{Method: "GET", OperationID: strings.Repeat("a", 80)})
	assert.Len(t, name, maxToolNameLength)
}

func TestCustomNames(t *testing.T) {
	cf := NewComponentFactory(nil, "").WithCustomNames(map[string]string{
		"coins-markets":   "markets",
		"GET /search":     "search_all",
		"get:/global":     "global_stats",
		"/exchange_rates": "rates",
		"  ":              "ignored",
	})

	assert.Equal(t, "markets", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/coins/markets", OperationID: "coins-markets"}))
	assert.Equal(t, "search_all", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/search"}))
	assert.Equal(t, "global_stats", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/global"}))
	assert.Equal(t, "rates", cf.generateName(ir.HTTPRoute{Method: "GET", Path: "/exchange_rates"}))
	assert.NotContains(t, cf.customNames, "")
}

func TestCombineSchemasSuffixesCollisions(t *testing.T) {
	cf := NewComponentFactory(nil, "")
	route := ir.HTTPRoute{
		Method: "POST",
		Path:   "/portfolios/{id}",
		Parameters: []ir.ParameterInfo{
			{Name: "id", In: ir.ParameterInPath, Required: true, Description: "Portfolio id", Schema: ir.Schema{"type": "string"}},
			{Name: "dry_run", In: ir.ParameterInQuery, Deprecated: true},
		},
		RequestBody: &ir.RequestBodyInfo{
			Required: true,
			ContentSchemas: map[string]ir.Schema{
				"application/json": {
					"type": "object",
					"properties": map[string]interface{}{
						"id":   map[string]interface{}{"type": "string"},
						"name": map[string]interface{}{"type": "string"},
					},
					"required": []interface{}{"name"},
				},
			},
		},
	}

	schema, paramMap := cf.combineSchemas(route)

	props := schema.Properties()
	require.Contains(t, props, "id__path")
	require.Contains(t, props, "id")
	require.Contains(t, props, "name")
	assert.Equal(t, ir.Schema{"deprecated": true}, props["dry_run"])
	assert.Equal(t, "Portfolio id", props["id__path"]["description"])

	assert.Equal(t, ir.ParamMapping{OpenAPIName: "id", Location: ir.ParameterInPath, IsSuffixed: true}, paramMap["id__path"])
	assert.Equal(t, ir.LocationBody, paramMap["id"].Location)
	assert.ElementsMatch(t, []string{"id__path", "name"}, schema.Required())
}

func TestExtractOutputSchemaWrapsArrays(t *testing.T) {
	cf := NewComponentFactory(nil, "")
	route := ir.HTTPRoute{
		Responses: map[string]ir.ResponseInfo{
			"200": {ContentSchemas: map[string]ir.Schema{"application/json": {"type": "array"}}},
		},
	}

	schema, wrap := cf.extractOutputSchema(route)
	assert.True(t, wrap)
	assert.Contains(t, schema.Properties(), "result")

	route.Responses["200"] = ir.ResponseInfo{ContentSchemas: map[string]ir.Schema{"text/plain": {"type": "string"}}}
	schema, wrap = cf.extractOutputSchema(route)
	assert.Nil(t, schema)
	assert.False(t, wrap)
}

func TestFormatDescription(t *testing.T) {
	cf := NewComponentFactory(nil, "")
	route := ir.HTTPRoute{
		Method:  "GET",
		Path:    "/ping",
		Summary: "Check API server status",
		Tags:    []string{"ping"},
		Responses: map[string]ir.ResponseInfo{
			"200": {Description: "Status OK"},
			"401": {Description: "Unauthorized"},
		},
	}

	assert.Equal(t,
		"Check API server status\n\n**Responses:**\n- 200: Status OK\n- 401: Unauthorized\n\n**Tags:** ping",
		cf.formatDescription(route))
	assert.Equal(t, "GET /global", cf.formatDescription(ir.HTTPRoute{Method: "get", Path: "/global"}))
}

func TestCreateToolsSkipsExcluded(t *testing.T) {
	cf := NewComponentFactory(nil, "https://api.coingecko.com/api/v3")
	tools, err := cf.CreateTools([]mapper.MappedRoute{
		{Route: ir.HTTPRoute{Method: "GET", Path: "/ping", OperationID: "ping"}, MCPType: mapper.MCPTypeTool, Tags: []string{"ping"}},
		{Route: ir.HTTPRoute{Method: "GET", Path: "/admin"}, MCPType: mapper.MCPTypeExclude},
	})
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "ping", tools[0].Tool().Name)
	assert.Equal(t, []string{"ping"}, tools[0].Tags())
}
