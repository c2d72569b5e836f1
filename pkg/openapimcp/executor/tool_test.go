package executor_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/executor"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

func coinRoute() ir.HTTPRoute {
	return ir.HTTPRoute{
		Path:        "/coins/markets",
		Method:      "GET",
		OperationID: "coins-markets",
		Summary:     "Coins List with Market Data",
		Parameters: []ir.ParameterInfo{
			{Name: "vs_currency", In: ir.ParameterInQuery, Required: true, Schema: ir.Schema{"type": "string"}},
			{Name: "per_page", In: ir.ParameterInQuery, Schema: ir.Schema{"type": "integer", "maximum": float64(250)}},
			{Name: "sparkline", In: ir.ParameterInQuery, Schema: ir.Schema{"type": "boolean"}},
		},
		Responses: map[string]ir.ResponseInfo{
			"200": {ContentSchemas: map[string]ir.Schema{"application/json": {"type": "array"}}},
		},
	}
}

func coinTool(t *testing.T, client executor.HTTPClient, baseURL string) *executor.OpenAPITool {
	t.Helper()
	tool, err := executor.NewOpenAPITool(executor.ToolConfig{
		Name:        "coins_markets",
		Description: "Coins List with Market Data",
		InputSchema: ir.Schema{
			"type": "object",
			"properties": map[string]interface{}{
				"vs_currency": map[string]interface{}{"type": "string"},
				"per_page":    map[string]interface{}{"type": "integer", "maximum": 250},
				"sparkline":   map[string]interface{}{"type": "boolean"},
			},
			"required": []string{"vs_currency"},
		},
		OutputSchema: ir.Schema{
			"type":       "object",
			"properties": map[string]interface{}{"result": map[string]interface{}{"type": "array"}},
			"required":   []string{"result"},
		},
		WrapResult: true,
		Route:      coinRoute(),
		Client:     client,
		BaseURL:    baseURL,
		ParamMap: map[string]ir.ParamMapping{
			"vs_currency": {OpenAPIName: "vs_currency", Location: ir.ParameterInQuery},
			"per_page":    {OpenAPIName: "per_page", Location: ir.ParameterInQuery},
			"sparkline":   {OpenAPIName: "sparkline", Location: ir.ParameterInQuery},
		},
		Tags: []string{"coins", "coins", " "},
	})
	require.NoError(t, err)
	return tool
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "coins_markets",
			Arguments: args,
		},
	}
}

func TestOpenAPIToolMetadata(t *testing.T) {
	tool := coinTool(t, nil, "http://localhost")

	assert.Equal(t, "coins_markets", tool.Tool().Name)
	assert.Equal(t, []string{"coins"}, tool.Tags())
	assert.Equal(t, "/coins/markets", tool.Route().Path)
	assert.Len(t, tool.ParameterMappings(), 3)

	annotations := tool.Tool().Annotations
	require.NotNil(t, annotations.ReadOnlyHint)
	assert.True(t, *annotations.ReadOnlyHint)
	assert.Equal(t, "Coins List with Market Data", annotations.Title)
}

func TestOpenAPIToolPublishesMeta(t *testing.T) {
	tool := coinTool(t, nil, "http://localhost")

	meta := tool.Tool().Meta
	require.NotNil(t, meta)
	assert.Equal(t, []string{"coins"}, meta.AdditionalFields["tags"])
	assert.Equal(t, map[string]any{
		"operationId": "coins-markets",
		"method":      "GET",
		"path":        "/coins/markets",
	}, meta.AdditionalFields["openapi"])
}

func TestOpenAPIToolRunSendsRequest(t *testing.T) {
	var gotQuery, gotKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"bitcoin","current_price":67000}]`))
	}))
	defer upstream.Close()

	client := executor.NewDefaultHTTPClient().WithHeaders(map[string]string{"x-cg-demo-api-key": "demo"})
	tool := coinTool(t, client, upstream.URL)

	result, err := tool.Run(context.Background(), callRequest(map[string]interface{}{
		"vs_currency": "usd",
		"per_page":    "10",
		"sparkline":   "false",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, textOf(t, result))

	assert.Equal(t, "per_page=10&sparkline=false&vs_currency=usd", gotQuery)
	assert.Equal(t, "demo", gotKey)

	structured, ok := result.StructuredContent.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, structured["result"], 1)
}

func TestOpenAPIToolRunRejectsInvalidArguments(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer upstream.Close()

	tool := coinTool(t, nil, upstream.URL)

	result, err := tool.Run(context.Background(), callRequest(map[string]interface{}{"per_page": float64(500)}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "Parameter validation failed")
	assert.False(t, called)
}

func TestOpenAPIToolRunReportsTransportFailure(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	baseURL := upstream.URL
	upstream.Close()

	tool := coinTool(t, nil, baseURL)

	result, err := tool.Run(context.Background(), callRequest(map[string]interface{}{"vs_currency": "usd"}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "Request failed")
}

func TestOpenAPIToolRunReportsUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429,"error_message":"rate limited"}}`))
	}))
	defer upstream.Close()

	tool := coinTool(t, nil, upstream.URL)

	result, err := tool.Run(context.Background(), callRequest(map[string]interface{}{"vs_currency": "usd"}))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "HTTP 429: Too Many Requests")
}

func TestDefaultHTTPClientKeepsRequestHeaders(t *testing.T) {
	var got http.Header
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer upstream.Close()

	client := executor.NewDefaultHTTPClient().WithHeaders(map[string]string{
		"Accept":            "text/plain",
		"x-cg-demo-api-key": "demo",
	})

	req, err := http.NewRequest(http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "demo", got.Get("X-Cg-Demo-Api-Key"))
	assert.Equal(t, "demo", client.Headers().Get("x-cg-demo-api-key"))
}

func TestDefaultHTTPClientWaitsForRateLimit(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer upstream.Close()

	client := executor.NewDefaultHTTPClient().WithRateLimit(rate.NewLimiter(rate.Every(time.Minute), 1))

	req, err := http.NewRequest(http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, int32(1), calls.Load())
}
