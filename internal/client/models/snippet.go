// Package models defines the client-side snippet entity and the JSON
// shapes used for local persistence and import/export payloads.
package models

import "time"

// Snippet is the sole persistent entity: a reusable message template with
// placeholder tokens, positioned by Order within the user's collection.
//
// ID is assigned locally (xid) when created signed-out, or by the remote
// store when created signed-in. Order is dense and zero-based under remote
// storage; under local-only storage position is implicit in slice order and
// Order is carried along as informational.
type Snippet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
