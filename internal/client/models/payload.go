package models

import (
	"encoding/json"
	"fmt"

	"github.com/okutsen/snipkeep/internal/common"
)

// wrappedPayload is the object form of an import file: { "snippets": [...] }.
type wrappedPayload struct {
	Snippets []Snippet `json:"snippets"`
}

// DecodeBatch parses an import payload. Accepted shapes are a bare array of
// snippet records or an object exposing a "snippets" array; anything else
// fails with common.ErrBadFormat. Individual records are not validated here.
func DecodeBatch(data []byte) ([]Snippet, error) {
	var bare []Snippet
	if err := json.Unmarshal(data, &bare); err == nil && bare != nil {
		return bare, nil
	}

	var wrapped wrappedPayload
	if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.Snippets == nil {
		return nil, fmt.Errorf("%w: expected a snippet array or {\"snippets\": [...]}", common.ErrBadFormat)
	}
	return wrapped.Snippets, nil
}

// EncodeCollection serializes snippets as an indented bare array, the form
// DecodeBatch round-trips and the export feature hands to the user.
func EncodeCollection(snippets []Snippet) ([]byte, error) {
	return json.MarshalIndent(snippets, "", "  ")
}
