package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/okutsen/snipkeep/internal/client/models"
	"github.com/okutsen/snipkeep/internal/common"
)

// HTTPClient implements Store against the snipkeep server's JSON API.
// The bearer token is set at sign-in and cleared at sign-out; requests
// issued without a token fail server-side with 401.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient returns a client for the API rooted at baseURL
// (e.g. "http://127.0.0.1:8080"). httpClient may be nil.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPClient{baseURL: baseURL, http: httpClient}
}

// SetToken installs (or clears, with "") the bearer token for all
// subsequent requests.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes the request and decodes a JSON response into out (if non-nil).
func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrNotFound
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote error: %s: %s", resp.Status, string(b))
	}
}

func (c *HTTPClient) Create(ctx context.Context, snippet models.Snippet) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/snippets", snippet)
	if err != nil {
		return "", err
	}

	var created models.Snippet
	if err := c.do(req, &created); err != nil {
		return "", fmt.Errorf("remote create: %w", err)
	}
	return created.ID, nil
}

func (c *HTTPClient) Update(ctx context.Context, id string, upd Update) error {
	req, err := c.newRequest(ctx, http.MethodPatch, "/api/snippets/"+id, upd)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("remote update: %w", err)
	}
	return nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/snippets/"+id, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("remote delete: %w", err)
	}
	return nil
}

func (c *HTTPClient) BatchUpdateOrder(ctx context.Context, updates []OrderUpdate) error {
	req, err := c.newRequest(ctx, http.MethodPut, "/api/snippets/order", updates)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("remote batch order: %w", err)
	}
	return nil
}

// List returns the full ordered collection. Not part of the Store contract;
// used by tests and debugging tools.
func (c *HTTPClient) List(ctx context.Context) ([]models.Snippet, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/snippets", nil)
	if err != nil {
		return nil, err
	}

	var snippets []models.Snippet
	if err := c.do(req, &snippets); err != nil {
		return nil, fmt.Errorf("remote list: %w", err)
	}
	return snippets, nil
}
