package model

import "time"

// Session is the per-client state held by the session store.
// Identity is nil for anonymous visitors.
type Session struct {
	Token     string    `json:"-"`
	Identity  *Identity `json:"identity,omitempty"`
	Flash     string    `json:"flash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	return s != nil && s.Identity != nil
}
