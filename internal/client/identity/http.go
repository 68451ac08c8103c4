package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/okutsen/snipkeep/internal/common"
)

// CodeSource produces a Google authorization code, typically by running the
// external popup/redirect flow. It may return the user's cancellation as an
// error.
type CodeSource func(ctx context.Context) (string, error)

// HTTPProvider implements Provider against the snipkeep server's auth
// endpoints: Google code exchange, plus an email/password fallback.
type HTTPProvider struct {
	baseURL    string
	http       *http.Client
	codeSource CodeSource

	mu        sync.Mutex
	current   *Identity
	listeners map[int]func(*Identity)
	nextID    int
}

// NewHTTPProvider returns a provider for the API rooted at baseURL.
// codeSource may be nil if only password sign-in is used.
func NewHTTPProvider(baseURL string, httpClient *http.Client, codeSource CodeSource) *HTTPProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPProvider{
		baseURL:    baseURL,
		http:       httpClient,
		codeSource: codeSource,
		listeners:  map[int]func(*Identity){},
	}
}

// tokenResponse is the server's shape for every successful auth exchange.
type tokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (p *HTTPProvider) OnAuthStateChanged(fn func(*Identity)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// Current returns the identity as of the last broadcast, or nil.
func (p *HTTPProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *HTTPProvider) SignIn(ctx context.Context) (*Identity, error) {
	if p.codeSource == nil {
		return nil, fmt.Errorf("%w: no authorization code source configured", common.ErrUnauthorized)
	}

	code, err := p.codeSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorization flow: %w", err)
	}

	return p.exchange(ctx, "/api/auth/google", map[string]string{"code": code})
}

// SignInWithPassword authenticates with the server's email/password
// fallback and broadcasts the resulting identity.
func (p *HTTPProvider) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	return p.exchange(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

// Register creates an email/password account. No identity is broadcast;
// callers follow up with SignInWithPassword.
func (p *HTTPProvider) Register(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/auth/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusConflict:
		return common.ErrAlreadyExists
	default:
		return fmt.Errorf("register failed: %s", resp.Status)
	}
}

func (p *HTTPProvider) SignOut(ctx context.Context) error {
	p.broadcast(nil)
	return nil
}

func (p *HTTPProvider) exchange(ctx context.Context, path string, payload map[string]string) (*Identity, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, common.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth exchange failed: %s", resp.Status)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}

	ident := &Identity{UserID: tr.UserID, Email: tr.Email, Token: tr.Token}
	p.broadcast(ident)
	return ident, nil
}

// broadcast updates the current identity and notifies listeners. Listeners
// run synchronously, in registration order is not guaranteed.
func (p *HTTPProvider) broadcast(ident *Identity) {
	p.mu.Lock()
	p.current = ident
	fns := make([]func(*Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ident)
	}
}
