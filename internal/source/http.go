package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
)

// HTTP fetches sources over http and https.
type HTTP struct {
	client *http.Client
}

// NewHTTP returns a fetcher using a pooled cleanhttp client. A nil client
// selects the default.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	return &HTTP{client: client}
}

// Fetch GETs url and returns the body. Non-2xx responses are a
// *StatusError.
func (h *HTTP) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, Status: resp.StatusCode}
	}
	return readLimited(resp.Body, url)
}

func readLimited(r io.Reader, url string) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > MaxSize {
		return "", fmt.Errorf("read %s: %w", url, ErrTooLarge)
	}
	return string(body), nil
}
