// Package store contains models of the dashboard and the local storage for them.
package store

import "errors"

// ErrNotFound is an error that is returned when the requested entity is not found.
var ErrNotFound = errors.New("not found")

// Identity is a profile of the authenticated user.
type Identity struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	CreatedAt Time   `json:"created_at"`
}

// Credentials is a pair of access token and the identity it belongs to.
type Credentials struct {
	Token string
	User  Identity
}

// Empty returns true if credentials don't prove anything.
func (c Credentials) Empty() bool { return c.Token == "" }
