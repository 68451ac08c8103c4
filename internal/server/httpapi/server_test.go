package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/logging"
	"github.com/okutsen/snipkeep/internal/server/auth"
	"github.com/okutsen/snipkeep/internal/server/models"
	"github.com/okutsen/snipkeep/internal/server/services"
)

const testSecret = "test-secret"

type fakeUsers struct {
	res *services.AuthResult
	err error
}

func (f *fakeUsers) Register(ctx context.Context, email, password string) (*services.AuthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func (f *fakeUsers) LoginWithGoogle(ctx context.Context, code string) (*services.AuthResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

type fakeSnippets struct {
	items      []*models.Snippet
	err        error
	reordered  []services.OrderUpdate
	deletedIDs []string
}

func (f *fakeSnippets) List(ctx context.Context, userID string) ([]*models.Snippet, error) {
	return f.Snapshot(ctx, userID)
}

func (f *fakeSnippets) Snapshot(ctx context.Context, userID string) ([]*models.Snippet, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.items == nil {
		return []*models.Snippet{}, nil
	}
	return f.items, nil
}

func (f *fakeSnippets) Create(ctx context.Context, userID, title, message string) (*models.Snippet, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &models.Snippet{ID: "new-id", UserID: userID, Title: title, Message: message, Ord: len(f.items)}
	f.items = append(f.items, s)
	return s, nil
}

func (f *fakeSnippets) Update(ctx context.Context, userID, id string, title, message *string) (*models.Snippet, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.items {
		if s.ID == id {
			if title != nil {
				s.Title = *title
			}
			if message != nil {
				s.Message = *message
			}
			return s, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeSnippets) Delete(ctx context.Context, userID, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeSnippets) Reorder(ctx context.Context, userID string, updates []services.OrderUpdate) error {
	if f.err != nil {
		return f.err
	}
	f.reordered = updates
	return nil
}

type fakeArchiver struct {
	url string
	err error
}

func (f *fakeArchiver) Archive(ctx context.Context, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newTestServer(t *testing.T, snips *fakeSnippets) (*HTTPServer, *services.Hub) {
	t.Helper()
	if snips == nil {
		snips = &fakeSnippets{}
	}
	hub := services.NewHub()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	users := &fakeUsers{res: &services.AuthResult{Token: "t", UserID: "u1", Email: "sam@example.com"}}
	archive := &fakeArchiver{url: "https://s3.example/archives/u1/x.json"}
	return NewHTTPServer(":0", logger, users, snips, archive, hub, testSecret), hub
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv.Router(), http.MethodPost, "/api/auth/register", "",
		map[string]string{"email": "sam@example.com", "password": "longenough"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var res services.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "u1", res.UserID)
}

func TestLogin_Unauthorized(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	srv.users.(*fakeUsers).err = common.ErrUnauthorized

	rec := doRequest(t, srv.Router(), http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "sam@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleLogin_MissingCode(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv.Router(), http.MethodPost, "/api/auth/google", "",
		map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv.Router(), http.MethodGet, "/api/snippets", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv.Router(), http.MethodGet, "/api/snippets", "Bearer garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv.Router(), http.MethodGet, "/api/snippets", bearerFor(t, "u1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestCreateSnippet(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv.Router(), http.MethodPost, "/api/snippets", bearerFor(t, "u1"),
		map[string]string{"title": "T", "message": "M"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Snippet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "new-id", created.ID)
}

func TestUpdateSnippet_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv.Router(), http.MethodPatch, "/api/snippets/missing", bearerFor(t, "u1"),
		map[string]string{"title": "T"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSnippet(t *testing.T) {
	snips := &fakeSnippets{}
	srv, _ := newTestServer(t, snips)

	rec := doRequest(t, srv.Router(), http.MethodDelete, "/api/snippets/s1", bearerFor(t, "u1"), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []string{"s1"}, snips.deletedIDs)
}

func TestReorderSnippets(t *testing.T) {
	snips := &fakeSnippets{}
	srv, _ := newTestServer(t, snips)

	rec := doRequest(t, srv.Router(), http.MethodPut, "/api/snippets/order", bearerFor(t, "u1"),
		[]map[string]any{{"id": "a", "order": 1}, {"id": "b", "order": 0}})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []services.OrderUpdate{{ID: "a", Order: 1}, {ID: "b", Order: 0}}, snips.reordered)
}

func TestArchive(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(t, srv.Router(), http.MethodPost, "/api/snippets/archive", bearerFor(t, "u1"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "https://s3.example/archives/u1/x.json")
}

func TestArchive_EmptyCollection(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	srv.archive.(*fakeArchiver).err = common.ErrEmptyCollection

	rec := doRequest(t, srv.Router(), http.MethodPost, "/api/snippets/archive", bearerFor(t, "u1"), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestStream_SnapshotOnConnectAndOnPublish(t *testing.T) {
	snips := &fakeSnippets{items: []*models.Snippet{{ID: "a", Title: "A", Message: "MA"}}}
	srv, hub := newTestServer(t, snips)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/snippets/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	req.Header.Set("Accept", "text/event-stream")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	event, payload := readEvent(t, reader)
	require.Equal(t, "snapshot", event)
	require.Contains(t, payload, `"id":"a"`)

	hub.Publish("u1", []*models.Snippet{{ID: "b", Title: "B", Message: "MB"}})

	event, payload = readEvent(t, reader)
	require.Equal(t, "snapshot", event)
	require.Contains(t, payload, `"id":"b"`)
}

// readEvent parses one "event:"/"data:" block terminated by a blank line.
func readEvent(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				t.Errorf("stream read error: %v", err)
				return
			}
			line = strings.TrimRight(line, "\r\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && event != "":
				return
			}
		}
	}()
	select {
	case <-done:
	case <-deadline:
		t.Fatal("timed out waiting for event")
	}
	return event, data
}
