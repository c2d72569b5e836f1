package factory

import (
	"go.uber.org/zap"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/executor"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/mapper"
)

// ComponentFactory builds executable MCP tools from mapped routes. Tool
// names are unique per factory; reuse one factory per server.
type ComponentFactory struct {
	client      executor.HTTPClient
	baseURL     string
	nameCounter map[string]int
	usedNames   map[string]struct{}
	customNames map[string]string
	logger      *zap.Logger
}

func NewComponentFactory(client executor.HTTPClient, baseURL string) *ComponentFactory {
	return &ComponentFactory{
		client:      client,
		baseURL:     baseURL,
		nameCounter: make(map[string]int),
		usedNames:   make(map[string]struct{}),
		logger:      zap.NewNop(),
	}
}

// WithCustomNames overrides generated tool names. Keys may be an
// operationId, "GET /path", "get:/path" or a bare path.
func (cf *ComponentFactory) WithCustomNames(names map[string]string) *ComponentFactory {
	cf.customNames = normalizeCustomNames(names)
	return cf
}

func (cf *ComponentFactory) WithLogger(logger *zap.Logger) *ComponentFactory {
	if logger != nil {
		cf.logger = logger
	}
	return cf
}

func (cf *ComponentFactory) CreateTools(mappedRoutes []mapper.MappedRoute) ([]*executor.OpenAPITool, error) {
	tools := make([]*executor.OpenAPITool, 0, len(mappedRoutes))
	for _, mapped := range mappedRoutes {
		if mapped.MCPType != mapper.MCPTypeTool {
			continue
		}
		tool, err := cf.CreateTool(mapped.Route, mapped.Tags)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

func (cf *ComponentFactory) CreateTool(route ir.HTTPRoute, tags []string) (*executor.OpenAPITool, error) {
	inputSchema, paramMap := cf.combineSchemas(route)
	outputSchema, wrapResult := cf.extractOutputSchema(route)
	name := cf.generateName(route)

	tool, err := executor.NewOpenAPITool(executor.ToolConfig{
		Name:         name,
		Description:  cf.formatDescription(route),
		InputSchema:  inputSchema,
		OutputSchema: outputSchema,
		WrapResult:   wrapResult,
		Route:        route,
		Client:       cf.client,
		BaseURL:      cf.baseURL,
		ParamMap:     paramMap,
		Tags:         tags,
		Logger:       cf.logger,
	})
	if err != nil {
		return nil, err
	}

	cf.logger.Debug("created tool",
		zap.String("name", name),
		zap.String("route", route.Key()),
	)
	return tool, nil
}
