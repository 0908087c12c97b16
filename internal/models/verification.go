package models

import "time"

// EmailVerification is the live verification code for an email.
// At most one row per email (unique constraint).
type EmailVerification struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordCode is the live password-reset code for an email.
// At most one row per email; issuing replaces any prior row.
type PasswordCode struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
