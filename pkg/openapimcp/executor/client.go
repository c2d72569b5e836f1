package executor

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient adds a fixed header set to every request. Headers the
// request already carries are left untouched.
type DefaultHTTPClient struct {
	client  *http.Client
	headers http.Header
	limiter *rate.Limiter
}

func NewDefaultHTTPClient() *DefaultHTTPClient {
	return &DefaultHTTPClient{
		client:  &http.Client{},
		headers: make(http.Header),
	}
}

func (c *DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	for key, values := range c.headers {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return c.client.Do(req)
}

func (c *DefaultHTTPClient) WithTimeout(timeout time.Duration) *DefaultHTTPClient {
	c.client.Timeout = timeout
	return c
}

// WithHeaders merges headers into the client's set; later values for the
// same key replace earlier ones.
func (c *DefaultHTTPClient) WithHeaders(headers map[string]string) *DefaultHTTPClient {
	for key, value := range headers {
		c.headers.Set(key, value)
	}
	return c
}

// WithRateLimit makes Do wait for a limiter token before each request.
func (c *DefaultHTTPClient) WithRateLimit(limiter *rate.Limiter) *DefaultHTTPClient {
	c.limiter = limiter
	return c
}

func (c *DefaultHTTPClient) WithTransport(rt http.RoundTripper) *DefaultHTTPClient {
	c.client.Transport = rt
	return c
}

func (c *DefaultHTTPClient) Headers() http.Header {
	return c.headers.Clone()
}

func (c *DefaultHTTPClient) Client() *http.Client {
	return c.client
}
