package models

import "time"

// User is a registered account. A user signs in either with an email and
// password or through Google; GoogleSub holds the Google subject claim and
// is empty for password-only accounts.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	GoogleSub    string
	CreatedAt    time.Time
}
