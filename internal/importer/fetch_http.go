package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFetcher downloads http and https references.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch streams the response body of a GET request to w.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref Reference, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.Location, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", ref.Location, resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return nil
}
