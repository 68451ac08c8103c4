package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okutsen/snipkeep/internal/server/models"
)

const keepaliveInterval = 25 * time.Second

// handleStream serves the per-user event stream. The full ordered
// collection is sent as a "snapshot" event immediately on connect and
// then after every change, so a client never has to reconcile deltas.
// Comment lines keep idle connections from being reaped by proxies.
func (s *HTTPServer) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	userID := userIDFromContext(ctx)

	initial, err := s.snippets.Snapshot(ctx, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	ch, cancel := s.hub.Subscribe(userID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSnapshotEvent(w, initial); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, open := <-ch:
			if !open {
				return
			}
			if err := writeSnapshotEvent(w, snapshot); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshotEvent(w http.ResponseWriter, snapshot []*models.Snippet) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
