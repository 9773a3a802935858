package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/roach88/cable/internal/graph"
)

// Map serves sources from memory, keyed by the exact URL.
type Map map[string]string

// Fetch returns the stored text.
func (m Map) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, ok := m[url]
	if !ok {
		return "", fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	return src, nil
}

// Mux dispatches on the URL scheme. URLs without a scheme go to the
// fallback.
type Mux struct {
	schemes  map[string]graph.Fetcher
	fallback graph.Fetcher
}

// NewMux returns an empty mux with the given fallback (may be nil).
func NewMux(fallback graph.Fetcher) *Mux {
	return &Mux{schemes: make(map[string]graph.Fetcher), fallback: fallback}
}

// Handle registers f for scheme and returns m.
func (m *Mux) Handle(scheme string, f graph.Fetcher) *Mux {
	m.schemes[scheme] = f
	return m
}

// Fetch routes url to the fetcher for its scheme.
func (m *Mux) Fetch(ctx context.Context, url string) (string, error) {
	f := m.fallback
	if i := strings.Index(url, "://"); i > 0 {
		scheme := url[:i]
		var ok bool
		if f, ok = m.schemes[scheme]; !ok {
			return "", fmt.Errorf("fetch %s: no fetcher for scheme %q", url, scheme)
		}
	}
	if f == nil {
		return "", fmt.Errorf("fetch %s: no fetcher for scheme-less URL", url)
	}
	return f.Fetch(ctx, url)
}

// Default returns a mux serving http, https and file URLs, with plain
// paths read from fsys relative to root.
func Default(fsys afero.Fs, root string) *Mux {
	files := NewFS(fsys, root)
	web := NewHTTP(nil)
	return NewMux(files).
		Handle("http", web).
		Handle("https", web).
		Handle("file", files)
}

var (
	_ graph.Fetcher = (*HTTP)(nil)
	_ graph.Fetcher = (*FS)(nil)
	_ graph.Fetcher = Map(nil)
	_ graph.Fetcher = (*Mux)(nil)
	_ graph.Fetcher = (*Cache)(nil)
)
