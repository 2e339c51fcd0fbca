package model

import "time"

// SessionID is the opaque value carried in the session cookie
type SessionID string

// Session is a server-side session holding a serialized principal
type Session struct {
	ID        SessionID  `json:"id"`
	Principal *Principal `json:"principal"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// PendingAuth tracks an OAuth flow between initiation and callback
type PendingAuth struct {
	State     string    `json:"state"`
	Provider  string    `json:"provider"`
	Verifier  string    `json:"verifier"` // PKCE code verifier
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the pending flow is past its expiry at the given time
func (p *PendingAuth) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
