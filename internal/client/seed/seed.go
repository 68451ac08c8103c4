// Package seed supplies the one-time bootstrap dataset: a bundled set of
// starter snippets, optionally refreshed from a remote URL. Loading is
// best-effort: a missing or unreachable source is not an error, the
// bundled copy always applies.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/okutsen/snipkeep/internal/client/models"
	"github.com/okutsen/snipkeep/internal/netx"
)

//go:embed samples.json
var bundled []byte

// Source loads the sample dataset.
type Source struct {
	url  string
	http *http.Client
}

// NewSource returns a Source. url may be empty, in which case only the
// bundled dataset is used.
func NewSource(url string, client *http.Client) *Source {
	return &Source{url: url, http: client}
}

// Load returns the sample snippets. The remote URL, when configured and
// reachable with a well-formed payload, takes precedence over the bundled
// copy; every failure falls back silently.
func (s *Source) Load(ctx context.Context) []models.Snippet {
	if s.url != "" {
		if data, err := netx.FetchBytes(ctx, s.http, s.url); err == nil {
			if snippets, err := models.DecodeBatch(data); err == nil && len(snippets) > 0 {
				return snippets
			}
		}
	}

	var snippets []models.Snippet
	if err := json.Unmarshal(bundled, &snippets); err != nil {
		return nil
	}
	return snippets
}
