// Package netx contains small HTTP helpers shared across the project.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// FetchBytes GETs url and returns the response body. Any non-200 status is
// an error.
func FetchBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
