package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/server/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Code string `json:"code"`
}

type snippetRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type snippetPatchRequest struct {
	Title   *string `json:"title"`
	Message *string `json:"message"`
}

type archiveResponse struct {
	URL string `json:"url"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// writeServiceError translates service-layer sentinel errors into HTTP
// statuses. Unrecognized errors become 500 without leaking details.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrEmptyCollection):
		writeError(w, http.StatusConflict, "collection is empty")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !readJSON(w, r, &req) {
		return
	}

	res, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !readJSON(w, r, &req) {
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	res, err := s.users.LoginWithGoogle(r.Context(), req.Code)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleListSnippets(w http.ResponseWriter, r *http.Request) {
	items, err := s.snippets.Snapshot(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateSnippet(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if !readJSON(w, r, &req) {
		return
	}

	created, err := s.snippets.Create(r.Context(), userIDFromContext(r.Context()), req.Title, req.Message)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *HTTPServer) handleUpdateSnippet(w http.ResponseWriter, r *http.Request) {
	var req snippetPatchRequest
	if !readJSON(w, r, &req) {
		return
	}

	updated, err := s.snippets.Update(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Title, req.Message)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDeleteSnippet(w http.ResponseWriter, r *http.Request) {
	err := s.snippets.Delete(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleReorderSnippets(w http.ResponseWriter, r *http.Request) {
	var updates []services.OrderUpdate
	if !readJSON(w, r, &updates) {
		return
	}

	if err := s.snippets.Reorder(r.Context(), userIDFromContext(r.Context()), updates); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	url, err := s.archive.Archive(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, archiveResponse{URL: url})
}
