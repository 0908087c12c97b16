package services

import "fmt"

// Field-tagged error classes. Handlers translate these into structured
// responses; anything else is treated as internal and hidden from the
// caller.

// ValidationError — malformed input, tagged with the offending field.
type ValidationError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Name + ": " + e.Message }

// ConflictError — uniqueness violation, tagged with the colliding field
// (username, email or student_id, checked in that order).
type ConflictError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *ConflictError) Error() string { return e.Name + ": " + e.Message }

// UnauthorizedError — login failure, tagged so the client can highlight
// the username or password field.
type UnauthorizedError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *UnauthorizedError) Error() string { return e.Name + ": " + e.Message }

// NotFoundError — no matching code, token or account.
type NotFoundError struct {
	Message string `json:"message"`
}

func (e *NotFoundError) Error() string { return e.Message }

// InvalidCodeError — a live code exists but does not match. Distinct
// from NotFoundError so clients can tell "never requested" from
// "wrong value".
type InvalidCodeError struct {
	Message string `json:"message"`
}

func (e *InvalidCodeError) Error() string { return e.Message }

// GoneError — missing or expired refresh token. Expired and unknown are
// deliberately the same class so the response leaks nothing about
// whether the token ever existed.
type GoneError struct {
	Message string `json:"message"`
}

func (e *GoneError) Error() string { return e.Message }

// InternalError — store or crypto failure. The wrapped cause is logged,
// never returned to the caller.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error { return e.Err }

func internalErr(message string, err error) *InternalError {
	return &InternalError{Message: message, Err: err}
}
