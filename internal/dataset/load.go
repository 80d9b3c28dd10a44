package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxDocument bounds a fetched or read document.
const maxDocument = 64 << 20

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Load fetches source (a path or an http(s) URL), decodes it and validates
// the graph. Every failure is a *LoadError.
func Load(ctx context.Context, source string) (*Graph, error) {
	g, err := load(ctx, source)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	if err := g.Validate(); err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return g, nil
}

func load(ctx context.Context, source string) (*Graph, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return fetch(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(io.LimitReader(f, maxDocument), isYAML(source, ""))
}

func fetch(ctx context.Context, url string) (*Graph, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return decode(io.LimitReader(resp.Body, maxDocument), isYAML(url, resp.Header.Get("Content-Type")))
}

func decode(r io.Reader, yamlDoc bool) (*Graph, error) {
	if yamlDoc {
		return DecodeYAML(r)
	}
	return Decode(r)
}

func isYAML(name, contentType string) bool {
	if strings.Contains(contentType, "yaml") {
		return true
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
