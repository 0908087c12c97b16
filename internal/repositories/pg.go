package repositories

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// UniqueConflictField maps a Postgres unique-violation to the identity
// field whose constraint fired. The read-before-write uniqueness probe
// is advisory; the constraint is what actually serializes concurrent
// registrations, so callers turn this into the field-tagged conflict.
func UniqueConflictField(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return "", false
	}
	switch {
	case strings.Contains(pqErr.Constraint, "username"):
		return "username", true
	case strings.Contains(pqErr.Constraint, "student_id"):
		return "student_id", true
	case strings.Contains(pqErr.Constraint, "email"):
		return "email", true
	default:
		return "", true
	}
}

// IsUniqueViolation reports whether err is any Postgres unique-violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
