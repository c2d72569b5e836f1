package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

var ErrSpecNotFound = errors.New("OpenAPI spec not found")

// maxSpecSize bounds remote downloads; the full CoinGecko document is a few MB.
const maxSpecSize int64 = 64 << 20

// SpecSource names exactly one of a local file or a remote URL.
type SpecSource struct {
	Path    string
	URL     string
	Timeout time.Duration
	Client  *http.Client
	// MaxSize caps a remote download in bytes; maxSpecSize when zero.
	MaxSize int64
}

// Location returns the path or URL the document is read from.
func (s SpecSource) Location() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// LoadSpec reads the OpenAPI document. Remote documents are fetched once,
// without retries.
func LoadSpec(ctx context.Context, src SpecSource) ([]byte, error) {
	switch {
	case src.URL != "":
		return fetchSpec(ctx, src)
	case src.Path != "":
		return readSpec(src.Path)
	default:
		return nil, errors.New("no OpenAPI spec source configured")
	}
}

func readSpec(path string) ([]byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrSpecNotFound, absPath)
		}
		return nil, fmt.Errorf("failed to read OpenAPI spec %s: %w", absPath, err)
	}
	return data, nil
}

func fetchSpec(ctx context.Context, src SpecSource) ([]byte, error) {
	client := src.Client
	if client == nil {
		client = &http.Client{Timeout: src.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec URL %s: %w", src.URL, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch OpenAPI spec from %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch OpenAPI spec from %s: HTTP %d", src.URL, resp.StatusCode)
	}

	limit := src.MaxSize
	if limit <= 0 {
		limit = maxSpecSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI spec from %s: %w", src.URL, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("OpenAPI spec from %s exceeds %d bytes", src.URL, limit)
	}
	return data, nil
}
