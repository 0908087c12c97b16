package models

import "time"

// RefreshToken is an opaque session credential. Issuing a new one for a
// user deletes all prior rows, so at most one is live per user.
type RefreshToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
