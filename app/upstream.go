package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher downloads the raw league payload.
type Fetcher struct {
	url    string
	client *http.Client
}

// NewFetcher creates a fetcher for url. A nil client means
// http.DefaultClient, which has no timeout.
func NewFetcher(url string, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{url: url, client: client}
}

// Fetch issues a single GET and returns the response body. There is no
// retry: any failure is reported as ErrUpstream, still wrapping the context
// error when the caller gave up.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	body, err := f.fetch(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamFetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return body, err
}

func (f *Fetcher) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrUpstream, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}
	return body, nil
}
