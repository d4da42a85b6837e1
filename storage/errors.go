package storage

import "errors"

// Storage error constants
var (
	// ErrNotFound is returned when no content exists under a name.
	ErrNotFound = errors.New("content not found")

	// ErrAlreadyExists is returned when adding content under a name that
	// is already taken.
	ErrAlreadyExists = errors.New("content already exists")
)
