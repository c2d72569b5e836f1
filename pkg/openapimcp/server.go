// Package openapimcp exposes the operations of an OpenAPI 3.x document as
// MCP tools that proxy calls to the described HTTP API.
package openapimcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/executor"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/factory"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/mapper"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/parser"
)

type Server struct {
	mcpServer *server.MCPServer
	parser    *parser.Parser
	mapper    *mapper.RouteMapper
	factory   *factory.ComponentFactory
	tools     []*executor.OpenAPITool
	baseURL   string
	options   *ServerOptions
}

// NewServer parses spec and registers one tool per mapped operation.
func NewServer(spec []byte, opts ...ServerOption) (*Server, error) {
	options := defaultServerOptions()
	for _, opt := range opts {
		opt(options)
	}
	logger := options.Logger

	p, err := parser.NewParser(spec, parser.WithSpecURL(options.SpecURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse spec: %w", err)
	}

	client, clientCfg := prepareHTTPClient(options)
	baseURL := resolveBaseURL(options.BaseURL, clientCfg.BaseURL, p.ServerURLs())
	if baseURL == "" {
		logger.Warn("no base URL configured; tool calls will use relative paths")
	}

	m := mapper.NewRouteMapper(options.RouteMaps).WithGlobalTags(options.GlobalTags...)
	if options.RouteMapFunc != nil {
		m = m.WithMapFunc(options.RouteMapFunc)
	}

	f := factory.NewComponentFactory(client, baseURL).WithLogger(logger)
	if options.CustomNames != nil {
		f = f.WithCustomNames(options.CustomNames)
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			options.ServerName,
			options.ServerVersion,
			server.WithToolCapabilities(true),
		),
		parser:  p,
		mapper:  m,
		factory: f,
		baseURL: baseURL,
		options: options,
	}

	if err := s.registerTools(p.Routes()); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	logger.Info("registered OpenAPI tools",
		zap.String("openapi", p.Version()),
		zap.Int("routes", len(p.Routes())),
		zap.Int("tools", len(s.tools)),
	)
	return s, nil
}

func (s *Server) registerTools(routes []ir.HTTPRoute) error {
	tools, err := s.factory.CreateTools(s.mapper.MapRoutes(routes))
	if err != nil {
		return err
	}
	for _, tool := range tools {
		s.mcpServer.AddTool(tool.Tool(), tool.Run)
	}
	s.tools = tools
	return nil
}

func resolveBaseURL(explicit, configured string, servers []string) string {
	for _, candidate := range []string{explicit, configured} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	for _, candidate := range servers {
		// relative server entries need a document URL to mean anything
		if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
			return candidate
		}
	}
	return ""
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) Tools() []*executor.OpenAPITool {
	return append([]*executor.OpenAPITool(nil), s.tools...)
}

// ToolNames returns the registered tool names in sorted order.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.tools))
	for _, tool := range s.tools {
		names = append(names, tool.Tool().Name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) BaseURL() string {
	return s.baseURL
}

func (s *Server) Routes() []ir.HTTPRoute {
	return s.parser.Routes()
}
