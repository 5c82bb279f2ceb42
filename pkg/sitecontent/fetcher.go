/**
 * @description
 * This package fetches website content used to ground the assistant's
 * fallback answers. The caller treats a failed fetch as empty content, so
 * this client only has to be honest about errors, not resilient.
 */
package sitecontent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps how much of the page is read. The prompt builder
// truncates further.
const maxBodyBytes = 1 << 20

// Fetcher retrieves page content over HTTP.
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a Fetcher with a sane timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Fetch returns the body of the page at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
