package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

// OpenAPITool is one MCP tool backed by one OpenAPI operation.
type OpenAPITool struct {
	tool         mcp.Tool
	route        ir.HTTPRoute
	client       HTTPClient
	baseURL      string
	paramMap     map[string]ir.ParamMapping
	outputSchema ir.Schema
	wrapResult   bool
	validator    *jsonschema.Schema
	tags         []string
	logger       *zap.Logger
}

type ToolConfig struct {
	Name         string
	Description  string
	InputSchema  ir.Schema
	OutputSchema ir.Schema
	WrapResult   bool
	Route        ir.HTTPRoute
	Client       HTTPClient
	BaseURL      string
	ParamMap     map[string]ir.ParamMapping
	Tags         []string
	Logger       *zap.Logger
}

func NewOpenAPITool(cfg ToolConfig) (*OpenAPITool, error) {
	inputSchemaJSON, err := json.Marshal(cfg.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema for %s: %w", cfg.Name, err)
	}

	tool := mcp.NewToolWithRawSchema(cfg.Name, cfg.Description, inputSchemaJSON)
	if cfg.OutputSchema != nil {
		outputSchemaJSON, err := json.Marshal(cfg.OutputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal output schema for %s: %w", cfg.Name, err)
		}
		mcp.WithRawOutputSchema(outputSchemaJSON)(&tool)
	}
	if annotation := deriveToolAnnotations(cfg.Route.Method, cfg.Route.Summary); annotation != nil {
		mcp.WithToolAnnotation(*annotation)(&tool)
	}
	tags := uniqueStrings(cfg.Tags)
	if meta := buildToolMeta(cfg.Route, tags); len(meta) > 0 {
		tool.Meta = mcp.NewMetaFromMap(meta)
	}

	client := cfg.Client
	if client == nil {
		client = NewDefaultHTTPClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAPITool{
		tool:         tool,
		route:        cfg.Route,
		client:       client,
		baseURL:      cfg.BaseURL,
		paramMap:     cfg.ParamMap,
		outputSchema: cfg.OutputSchema,
		wrapResult:   cfg.WrapResult,
		validator:    compileJSONSchema(inputSchemaJSON),
		tags:         tags,
		logger:       logger.With(zap.String("tool", cfg.Name)),
	}, nil
}

func (t *OpenAPITool) Tool() mcp.Tool {
	return t.tool
}

func (t *OpenAPITool) Route() ir.HTTPRoute {
	return t.route
}

// ParameterMappings returns the argument-name to OpenAPI-parameter mapping.
func (t *OpenAPITool) ParameterMappings() map[string]ir.ParamMapping {
	result := make(map[string]ir.ParamMapping, len(t.paramMap))
	for k, v := range t.paramMap {
		result[k] = v
	}
	return result
}

func (t *OpenAPITool) Tags() []string {
	return append([]string(nil), t.tags...)
}

// Run satisfies server.ToolHandlerFunc.
func (t *OpenAPITool) Run(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	errorHandler := NewErrorHandler(t.logger)

	args := request.GetArguments()
	if args == nil {
		args = make(map[string]interface{})
	}

	t.normalizeArguments(args)

	if err := t.validateArgs(args); err != nil {
		return errorHandler.HandleValidationError(err), nil
	}

	builder := NewRequestBuilder(t.route, t.paramMap, t.baseURL)
	httpReq, err := builder.Build(ctx, args)
	if err != nil {
		return errorHandler.HandleBuildError(err), nil
	}

	t.logger.Debug("calling upstream",
		zap.String("method", httpReq.Method),
		zap.String("path", httpReq.URL.Path),
	)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return errorHandler.HandleHTTPError(err), nil
	}

	processor := NewResponseProcessor(t.outputSchema, t.wrapResult, errorHandler)
	result, err := processor.Process(resp)
	if err != nil {
		return errorHandler.HandleResponseError(err), nil
	}
	return result, nil
}

func (t *OpenAPITool) validateArgs(args map[string]interface{}) error {
	if t.validator == nil {
		return nil
	}
	if err := t.validator.Validate(args); err != nil {
		return fmt.Errorf("argument validation failed: %w", err)
	}
	return nil
}

// normalizeArguments coerces string arguments into the numeric or boolean
// types their parameter schema asks for; clients often send "10" for 10.
func (t *OpenAPITool) normalizeArguments(args map[string]interface{}) {
	for name, value := range args {
		if value == nil {
			continue
		}
		mapping, ok := t.paramMap[name]
		if !ok || mapping.Location == ir.LocationBody {
			continue
		}
		param := t.findRouteParameter(mapping)
		if param == nil || param.Schema == nil {
			continue
		}
		if coerced, changed := coerceValueForSchema(value, param.Schema); changed {
			args[name] = coerced
		}
	}
}

func (t *OpenAPITool) findRouteParameter(mapping ir.ParamMapping) *ir.ParameterInfo {
	for i := range t.route.Parameters {
		param := &t.route.Parameters[i]
		if param.Name == mapping.OpenAPIName && param.In == mapping.Location {
			return param
		}
	}
	return nil
}

func coerceValueForSchema(value interface{}, schema ir.Schema) (interface{}, bool) {
	s, ok := value.(string)
	if !ok || schema.AllowsType("string") {
		return value, false
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return value, false
	}
	if schema.AllowsType("integer") {
		if parsed, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return float64(parsed), true
		}
	}
	if schema.AllowsType("number") {
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return parsed, true
		}
	}
	if schema.AllowsType("boolean") {
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed, true
		}
	}
	return value, false
}

func deriveToolAnnotations(method, summary string) *mcp.ToolAnnotation {
	switch strings.ToUpper(method) {
	case "GET", "HEAD", "OPTIONS":
		return annotationFor(true, false, true, summary)
	case "PUT", "DELETE":
		return annotationFor(false, true, true, summary)
	default:
		return nil
	}
}

func annotationFor(readOnly, destructive, idempotent bool, summary string) *mcp.ToolAnnotation {
	annotation := mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(readOnly),
		DestructiveHint: boolPtr(destructive),
		IdempotentHint:  boolPtr(idempotent),
		OpenWorldHint:   boolPtr(true),
	}
	if summary != "" {
		annotation.Title = summary
	}
	return &annotation
}

// buildToolMeta publishes the operation identity under "openapi" and the
// route-map tags under "tags".
func buildToolMeta(route ir.HTTPRoute, tags []string) map[string]any {
	meta := make(map[string]any)
	openapiMeta := make(map[string]any)
	if route.OperationID != "" {
		openapiMeta["operationId"] = route.OperationID
	}
	if route.Method != "" {
		openapiMeta["method"] = strings.ToUpper(route.Method)
	}
	if route.Path != "" {
		openapiMeta["path"] = route.Path
	}
	if len(openapiMeta) > 0 {
		meta["openapi"] = openapiMeta
	}
	if len(tags) > 0 {
		meta["tags"] = tags
	}
	return meta
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

func boolPtr(v bool) *bool {
	value := v
	return &value
}
