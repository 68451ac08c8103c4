package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/okutsen/snipkeep/internal/client/models"
	"github.com/okutsen/snipkeep/internal/common"
)

// subscription guards callback delivery so that after Cancel returns no
// further onSnapshot/onError call can start. The read loop runs on its own
// goroutine but delivers snapshots strictly in arrival order.
type subscription struct {
	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc

	onSnapshot func([]models.Snippet)
	onError    func(error)
}

func (s *subscription) emitSnapshot(snippets []models.Snippet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onSnapshot(snippets)
}

func (s *subscription) emitError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onError(err)
}

// Cancel is synchronous: it marks the subscription closed before stopping
// the stream, so a callback racing with Cancel either completes first or
// never runs.
func (s *subscription) Cancel() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

func (c *HTTPClient) SubscribeOrdered(ctx context.Context, onSnapshot func([]models.Snippet), onError func(error)) (func(), error) {
	streamCtx, cancel := context.WithCancel(ctx)

	req, err := c.newRequest(streamCtx, http.MethodGet, "/api/snippets/stream", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	if err := mapStatus(resp); err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	sub := &subscription{cancel: cancel, onSnapshot: onSnapshot, onError: onError}

	go func() {
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

		var event string
		var data strings.Builder
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if data.Len() > 0 && (event == "" || event == "snapshot") {
					var snippets []models.Snippet
					if err := json.Unmarshal([]byte(data.String()), &snippets); err != nil {
						sub.emitError(fmt.Errorf("decode snapshot: %w", err))
					} else {
						sub.emitSnapshot(snippets)
					}
				}
				event = ""
				data.Reset()
			case strings.HasPrefix(line, "event:"):
				event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			case strings.HasPrefix(line, ":"):
				// keepalive comment
			}
		}

		if err := scanner.Err(); err != nil && streamCtx.Err() == nil {
			sub.emitError(fmt.Errorf("stream closed: %w", err))
		}
	}()

	return sub.Cancel, nil
}
