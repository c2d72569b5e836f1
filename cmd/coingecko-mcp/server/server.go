// Package server assembles the CoinGecko MCP server from a loaded config and
// runs it over stdio or streamable HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpsrv "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/specx2/coingecko-mcp/cmd/coingecko-mcp/config"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp"
	"github.com/specx2/coingecko-mcp/pkg/openapimcp/parser"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Config *config.Config
	Logger *zap.Logger
	// LookupEnv resolves env_headers; os.LookupEnv when nil.
	LookupEnv func(string) (string, bool)
	// SpecClient overrides the client used to download a remote spec.
	SpecClient *http.Client
}

// Server wraps the generated tool server together with the settings it was
// built from.
type Server struct {
	cfg       *config.Config
	tools     *openapimcp.Server
	endpoints int
	logger    *zap.Logger
}

// New loads the spec named by the config, counts its endpoints and builds
// the tool server.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	routeMaps, err := cfg.CompileRouteMaps()
	if err != nil {
		return nil, err
	}

	spec, err := LoadSpec(ctx, SpecSource{
		Path:    cfg.SpecPath(),
		URL:     cfg.OpenAPISpecURL,
		Timeout: timeout,
		Client:  opts.SpecClient,
	})
	if err != nil {
		return nil, err
	}

	endpoints, err := parser.CountEndpointsInSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI spec %s: %w", specLocation(cfg), err)
	}

	httpHeaders := cfg.ResolveHeaders(lookup)
	logger.Debug("resolved upstream headers", zap.Strings("headers", headerNames(httpHeaders)))

	tools, err := openapimcp.NewServer(spec,
		openapimcp.WithServerInfo(cfg.Name, cfg.Version),
		openapimcp.WithBaseURL(cfg.BaseURL),
		openapimcp.WithSpecURL(specLocation(cfg)),
		openapimcp.WithHTTPClientConfig(&openapimcp.HTTPClientConfig{
			BaseURL:           cfg.BaseURL,
			Timeout:           timeout,
			Headers:           httpHeaders,
			RequestsPerMinute: cfg.RateLimit,
		}),
		openapimcp.WithRouteMaps(routeMaps),
		openapimcp.WithCustomNames(cfg.CustomNames),
		openapimcp.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build MCP server from %s: %w", specLocation(cfg), err)
	}

	logger.Info(fmt.Sprintf("[%s] Total number of endpoints: %d", cfg.Name, endpoints))

	return &Server{
		cfg:       cfg,
		tools:     tools,
		endpoints: endpoints,
		logger:    logger,
	}, nil
}

func specLocation(cfg *config.Config) string {
	if cfg.OpenAPISpecURL != "" {
		return cfg.OpenAPISpecURL
	}
	return cfg.SpecPath()
}

func headerNames(headers http.Header) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) Endpoints() int {
	return s.endpoints
}

func (s *Server) ToolNames() []string {
	return s.tools.ToolNames()
}

func (s *Server) MCPServer() *mcpsrv.MCPServer {
	return s.tools.MCPServer()
}

// ServeStdio blocks until in reaches EOF or ctx is cancelled; both count as
// a clean shutdown.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpsrv.NewStdioServer(s.tools.MCPServer())
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("stdio")))

	s.logger.Info("serving MCP over stdio", zap.String("upstream", s.tools.BaseURL()))
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("stdio server stopped: %w", err)
}

// Handler returns the HTTP routes: the MCP endpoint at /mcp and a liveness
// check at /healthz.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","tools":%d}`, len(s.tools.ToolNames()))
	})
	r.Handle("/mcp", mcpsrv.NewStreamableHTTPServer(s.tools.MCPServer()))
	return r
}

// ServeHTTP listens on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger.Named("http")),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("serving MCP over HTTP", zap.String("addr", addr), zap.String("upstream", s.tools.BaseURL()))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server stopped: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	})
	return g.Wait()
}
