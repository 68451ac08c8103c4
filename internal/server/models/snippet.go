package models

import "time"

// Snippet is a single message template owned by a user. Ord is the
// zero-based position within the owner's collection; listings are always
// returned sorted by it.
type Snippet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Ord       int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
