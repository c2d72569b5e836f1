package openapimcp

import (
	"go.uber.org/zap"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/executor"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/mapper"
)

type ServerOptions struct {
	HTTPClient    executor.HTTPClient
	HTTPConfig    *HTTPClientConfig
	BaseURL       string
	SpecURL       string
	RouteMaps     []mapper.RouteMap
	RouteMapFunc  mapper.RouteMapFunc
	GlobalTags    []string
	CustomNames   map[string]string
	ServerName    string
	ServerVersion string
	Logger        *zap.Logger
}

func defaultServerOptions() *ServerOptions {
	return &ServerOptions{
		ServerName:    "openapi-mcp-server",
		ServerVersion: "0.1.0",
		Logger:        zap.NewNop(),
	}
}

type ServerOption func(*ServerOptions)

// WithHTTPClient replaces the client built from HTTPClientConfig.
func WithHTTPClient(client executor.HTTPClient) ServerOption {
	return func(opts *ServerOptions) {
		opts.HTTPClient = client
	}
}

func WithHTTPClientConfig(cfg *HTTPClientConfig) ServerOption {
	return func(opts *ServerOptions) {
		opts.HTTPConfig = cfg
	}
}

// WithBaseURL takes precedence over HTTPClientConfig.BaseURL and over the
// first server URL in the document.
func WithBaseURL(url string) ServerOption {
	return func(opts *ServerOptions) {
		opts.BaseURL = url
	}
}

// WithSpecURL sets the location relative $refs resolve against.
func WithSpecURL(url string) ServerOption {
	return func(opts *ServerOptions) {
		opts.SpecURL = url
	}
}

func WithRouteMaps(maps []mapper.RouteMap) ServerOption {
	return func(opts *ServerOptions) {
		opts.RouteMaps = maps
	}
}

func WithRouteMapFunc(fn mapper.RouteMapFunc) ServerOption {
	return func(opts *ServerOptions) {
		opts.RouteMapFunc = fn
	}
}

func WithGlobalTags(tags ...string) ServerOption {
	return func(opts *ServerOptions) {
		opts.GlobalTags = append(opts.GlobalTags, tags...)
	}
}

func WithCustomNames(names map[string]string) ServerOption {
	return func(opts *ServerOptions) {
		opts.CustomNames = names
	}
}

func WithServerInfo(name, version string) ServerOption {
	return func(opts *ServerOptions) {
		opts.ServerName = name
		opts.ServerVersion = version
	}
}

func WithLogger(logger *zap.Logger) ServerOption {
	return func(opts *ServerOptions) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}
