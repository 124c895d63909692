package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Opener turns a resource locator into a stream of its bytes.
type Opener interface {
	Open(ctx context.Context, src string) (io.ReadCloser, error)
}

// Resolver opens local paths, file:// and http(s):// URLs. Relative paths
// are taken from Root.
type Resolver struct {
	Root   string
	Client *http.Client
}

var _ Opener = (*Resolver)(nil)

func NewResolver(root string) *Resolver {
	return &Resolver{
		Root:   root,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Path returns the file a locator refers to and whether it is local.
func (r *Resolver) Path(src string) (string, bool) {
	u, err := url.Parse(src)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return "", false
		case "file":
			return filepath.FromSlash(u.Path), true
		}
	}
	if filepath.IsAbs(src) || r.Root == "" {
		return filepath.Clean(src), true
	}
	return filepath.Join(r.Root, src), true
}

func (r *Resolver) Open(ctx context.Context, src string) (io.ReadCloser, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty resource locator")
	}
	if path, local := r.Path(src); local {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", src, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", src, err)
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %s", src, resp.Status)
	}
	return resp.Body, nil
}
