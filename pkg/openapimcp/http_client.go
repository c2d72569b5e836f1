package openapimcp

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/executor"
)

// HTTPClientConfig describes the upstream client a server builds when no
// explicit HTTPClient is supplied.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Headers http.Header
	// RequestsPerMinute throttles upstream calls; zero means unlimited.
	RequestsPerMinute int
}

func prepareHTTPClient(opts *ServerOptions) (executor.HTTPClient, *HTTPClientConfig) {
	cfg := opts.HTTPConfig
	if cfg == nil {
		cfg = &HTTPClientConfig{}
	}
	if cfg.Headers == nil {
		cfg.Headers = make(http.Header)
	}

	if opts.HTTPClient != nil {
		return opts.HTTPClient, cfg
	}

	client := executor.NewDefaultHTTPClient()
	if cfg.Timeout > 0 {
		client.WithTimeout(cfg.Timeout)
	}
	headers := make(map[string]string, len(cfg.Headers))
	for key := range cfg.Headers {
		headers[key] = cfg.Headers.Get(key)
	}
	client.WithHeaders(headers)
	if cfg.RequestsPerMinute > 0 {
		client.WithRateLimit(rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1))
	}
	return client, cfg
}
