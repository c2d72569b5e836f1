// Package config loads the server's declarative configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/mapper"
)

const (
	DefaultPath    = "config.json"
	DefaultVersion = "0.1.0"
	DefaultTimeout = 30 * time.Second

	// PathEnv overrides DefaultPath when no --config flag is given.
	PathEnv = "COINGECKO_MCP_CONFIG"
)

var ErrConfigNotFound = errors.New("config file not found")

type RouteMap struct {
	Methods []string `json:"methods,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	MCPType string   `json:"mcp_type,omitempty"`
	MCPTags []string `json:"mcp_tags,omitempty"`
}

type Config struct {
	Name            string            `json:"name"`
	Version         string            `json:"version,omitempty"`
	BaseURL         string            `json:"base_url"`
	OpenAPISpecPath string            `json:"openapi_spec_path,omitempty"`
	OpenAPISpecURL  string            `json:"openapi_spec_url,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	EnvHeaders      map[string]string `json:"env_headers,omitempty"`
	RouteMaps       []RouteMap        `json:"route_maps,omitempty"`
	CustomNames     map[string]string `json:"custom_names,omitempty"`
	Timeout         string            `json:"timeout,omitempty"`

	// RateLimit caps upstream requests per minute; 0 disables throttling.
	RateLimit int `json:"rate_limit_per_minute,omitempty"`

	// dir is the directory of the loaded file; relative spec paths hang off it.
	dir string
}

// Load reads a JSON or YAML config file and validates it.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrConfigNotFound, absPath)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
	}
	cfg.dir = filepath.Dir(absPath)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", absPath, err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns the config location used when no flag is set.
func DefaultConfigPath(lookup func(string) (string, bool)) string {
	if lookup != nil {
		if value, ok := lookup(PathEnv); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return DefaultPath
}

func (c *Config) applyDefaults() {
	c.Name = strings.TrimSpace(c.Name)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.OpenAPISpecPath = strings.TrimSpace(c.OpenAPISpecPath)
	c.OpenAPISpecURL = strings.TrimSpace(c.OpenAPISpecURL)
	if c.Version == "" {
		c.Version = DefaultVersion
	}
}

func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL)
	}

	switch {
	case c.OpenAPISpecPath == "" && c.OpenAPISpecURL == "":
		return errors.New("one of openapi_spec_path or openapi_spec_url is required")
	case c.OpenAPISpecPath != "" && c.OpenAPISpecURL != "":
		return errors.New("openapi_spec_path and openapi_spec_url are mutually exclusive")
	}
	if c.OpenAPISpecURL != "" {
		if u, err := url.Parse(c.OpenAPISpecURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("openapi_spec_url %q must be an http(s) URL", c.OpenAPISpecURL)
		}
	}

	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative, got %d", c.RateLimit)
	}
	if _, err := c.CompileRouteMaps(); err != nil {
		return err
	}
	return nil
}

// SpecPath returns the absolute spec file path, or "" for a remote spec.
func (c *Config) SpecPath() string {
	if c.OpenAPISpecPath == "" {
		return ""
	}
	if filepath.IsAbs(c.OpenAPISpecPath) || c.dir == "" {
		return c.OpenAPISpecPath
	}
	return filepath.Join(c.dir, c.OpenAPISpecPath)
}

func (c *Config) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Timeout) == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// CompileRouteMaps converts the configured route maps in order. The
// catch-all tool mapping is appended later by the mapper itself.
func (c *Config) CompileRouteMaps() ([]mapper.RouteMap, error) {
	maps := make([]mapper.RouteMap, 0, len(c.RouteMaps))
	for i, rm := range c.RouteMaps {
		mcpType, err := mapper.ParseMCPType(rm.MCPType)
		if err != nil {
			return nil, fmt.Errorf("route_maps[%d]: %w", i, err)
		}

		compiled := mapper.NewRouteMap().WithMCPType(mcpType)
		if len(rm.Methods) > 0 {
			compiled.WithMethods(rm.Methods...)
		}
		if pattern := strings.TrimSpace(rm.Pattern); pattern != "" {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("route_maps[%d]: invalid pattern %q: %w", i, pattern, err)
			}
			compiled.PathPattern = re
		}
		if len(rm.Tags) > 0 {
			compiled.WithTags(rm.Tags...)
		}
		if len(rm.MCPTags) > 0 {
			compiled.WithMCPTags(rm.MCPTags...)
		}
		maps = append(maps, *compiled)
	}
	return maps, nil
}

// ResolveHeaders merges static headers with environment-sourced ones under
// canonical names, so an env header overrides a static one however either
// is spelled. A variable that is unset or empty leaves the static value in
// place.
func (c *Config) ResolveHeaders(lookup func(string) (string, bool)) http.Header {
	headers := make(http.Header, len(c.Headers)+len(c.EnvHeaders))
	for _, name := range sortedKeys(c.Headers) {
		headers.Set(name, c.Headers[name])
	}
	if lookup == nil {
		return headers
	}
	for _, name := range sortedKeys(c.EnvHeaders) {
		if value, ok := lookup(c.EnvHeaders[name]); ok && value != "" {
			headers.Set(name, value)
		}
	}
	return headers
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
