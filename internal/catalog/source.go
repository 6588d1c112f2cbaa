package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source produces the raw dataset bytes for a catalog load. Exactly one
// source is active at a time, picked from configuration at startup.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

//go:embed product-list.json
var embeddedDataset []byte

// EmbeddedSource serves the dataset baked into the binary. Used when the
// deployment has no external product feed.
type EmbeddedSource struct{}

func (EmbeddedSource) Fetch(ctx context.Context) ([]byte, error) {
	return embeddedDataset, nil
}

// FileSource reads the dataset from a JSON file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	payload, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file %s: %w", s.Path, err)
	}
	return payload, nil
}

// HTTPSource fetches the dataset from a URL. Responses are requested
// uncached so stock edits on the feed show up on the next load.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset from %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset fetch from %s returned HTTP %d", s.URL, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset response: %w", err)
	}
	return payload, nil
}

// SourceFor maps a CATALOG_SOURCE setting to a concrete source:
// "embedded", an http(s) URL, or a file path.
func SourceFor(setting string) Source {
	switch {
	case setting == "" || setting == "embedded":
		return EmbeddedSource{}
	case strings.HasPrefix(setting, "http://") || strings.HasPrefix(setting, "https://"):
		return HTTPSource{URL: setting}
	default:
		return FileSource{Path: setting}
	}
}
