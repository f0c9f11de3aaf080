// Package apperr defines the error taxonomy shared by the store, the
// domain packages and the HTTP layer. Handlers map these sentinels to
// status codes with errors.Is; everything else wraps them with %w.
package apperr

import "errors"

var (
	// ErrValidation covers malformed or incomplete input, e.g. a quiz
	// submission that does not answer every question.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a write would violate a uniqueness
	// rule, e.g. a second attempt for the same student and quiz.
	ErrConflict = errors.New("conflict")

	// ErrPermissionDenied is returned when the acting user is not allowed
	// to perform the operation, e.g. a non-instructor requesting rollups.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a referenced course, lesson, quiz or
	// enrollment does not exist.
	ErrNotFound = errors.New("not found")
)
