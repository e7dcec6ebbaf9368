package model

import "errors"

var (
	// ErrValidation marks malformed or missing input. The caller can fix it and retry.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized covers bad credentials and missing or invalid session tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoQuestions is returned when the question set is empty.
	ErrNoQuestions = errors.New("no questions found")
	// ErrUnavailable wraps failures of the backing stores.
	ErrUnavailable = errors.New("store unavailable")
)
