package storage

import "errors"

var (
	// ErrNotFound is returned when a requested document or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt is returned when a stored document cannot be decoded.
	ErrCorrupt = errors.New("corrupt document")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
