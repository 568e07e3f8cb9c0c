package dirtar

import "errors"

var (
	// ErrNotFound is returned when a path does not exist under the root
	ErrNotFound = errors.New("not found")
	// ErrNotDirectory is returned when an archive is requested for something that is not a directory
	ErrNotDirectory = errors.New("not a directory")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
