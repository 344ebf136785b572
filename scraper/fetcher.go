package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// DefaultUserAgent identifies requests as a common desktop browser
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// Fetcher retrieves the raw HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherOptions configures an HTTPFetcher
type FetcherOptions struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// DefaultFetcherOptions returns the options used when none are configured
func DefaultFetcherOptions() FetcherOptions {
	return FetcherOptions{
		Timeout:      12 * time.Second,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: 5 << 20,
	}
}

// HTTPFetcher fetches pages with a single GET and no retries
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewHTTPFetcher creates a fetcher bounded by opts.Timeout
func NewHTTPFetcher(opts FetcherOptions) *HTTPFetcher {
	defaults := DefaultFetcherOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaults.MaxBodyBytes
	}

	return &HTTPFetcher{
		client:       &http.Client{Timeout: opts.Timeout},
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Fetch returns the response body when the server answers 2xx.
// Any failure is logged and returned; callers treat it as "no page".
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("Failed to build request for %s: %v", url, err)
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("Failed to fetch %s: %v", url, err)
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Failed to fetch %s: status %d", url, resp.StatusCode)
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	// one extra byte tells a page that fits from one that was cut off
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		log.Printf("Failed to read body of %s: %v", url, err)
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		log.Printf("Body of %s exceeds %d bytes, truncated", url, f.maxBodyBytes)
		body = body[:f.maxBodyBytes]
	}

	return string(body), nil
}
