package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lib.js":
			fmt.Fprint(w, "define([], function () {})")
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := NewHTTP(srv.Client())
	ctx := context.Background()

	got, err := h.Fetch(ctx, srv.URL+"/lib.js")
	require.NoError(t, err)
	assert.Equal(t, "define([], function () {})", got)

	_, err = h.Fetch(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.Fetch(ctx, srv.URL+"/broken")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestHTTP_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", MaxSize+1))
	}))
	defer srv.Close()

	_, err := NewHTTP(nil).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFS_Fetch(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/app/modules/counter.yaml", []byte("count: 1"), 0o644))

	f := NewFS(mem, "/app")
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
	}{
		{"relative to root", "modules/counter.yaml"},
		{"absolute", "/app/modules/counter.yaml"},
		{"file url", "file:///app/modules/counter.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Fetch(ctx, tt.url)
			require.NoError(t, err)
			assert.Equal(t, "count: 1", got)
		})
	}

	_, err := f.Fetch(ctx, "modules/missing.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFS_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFS(afero.NewMemMapFs(), "").Fetch(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMux_Dispatch(t *testing.T) {
	m := NewMux(Map{"plain": "from fallback"}).
		Handle("mem", Map{"mem://a": "from mem"})
	ctx := context.Background()

	got, err := m.Fetch(ctx, "mem://a")
	require.NoError(t, err)
	assert.Equal(t, "from mem", got)

	got, err = m.Fetch(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, "from fallback", got)

	_, err = m.Fetch(ctx, "ftp://x")
	assert.ErrorContains(t, err, `no fetcher for scheme "ftp"`)

	_, err = NewMux(nil).Fetch(ctx, "plain")
	assert.Error(t, err)
}

func TestDefault_ReadsFiles(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/root/a.cue", []byte("a: 1"), 0o644))

	m := Default(mem, "/root")
	got, err := m.Fetch(context.Background(), "a.cue")
	require.NoError(t, err)
	assert.Equal(t, "a: 1", got)
}

// countingFetcher counts fetches of an underlying map.
type countingFetcher struct {
	Map
	calls int
}

func (c *countingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	c.calls++
	return c.Map.Fetch(ctx, url)
}

func TestCache_ReadThrough(t *testing.T) {
	next := &countingFetcher{Map: Map{"lib": "v1"}}
	path := filepath.Join(t.TempDir(), "sources.db")
	c, err := OpenCache(path, next)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Fetch(ctx, "lib")
		require.NoError(t, err)
		assert.Equal(t, "v1", got)
	}
	assert.Equal(t, 1, next.calls)

	next.Map["lib"] = "v2"
	require.NoError(t, c.Invalidate("lib"))
	got, err := c.Fetch(ctx, "lib")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
	assert.Equal(t, 2, next.calls)

	_, err = c.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, c.Close())

	// Entries survive reopening.
	reopened, err := OpenCache(path, Map{})
	require.NoError(t, err)
	defer reopened.Close()
	got, err = reopened.Fetch(ctx, "lib")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}
