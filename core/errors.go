package core

import "errors"

// Domain error constants
var (
	// ErrMalformedName is returned when a name string is empty or contains
	// an empty segment.
	ErrMalformedName = errors.New("malformed name")

	// ErrInvalidType is returned when a name's first segment does not map
	// to a known content type. The message travels verbatim in the API
	// envelope, capitalization included.
	ErrInvalidType = errors.New("Invalid collection type")

	// ErrInvalidFormat is returned when a serialization format is unknown.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrDuplicateKey is returned when content parses to an object with a
	// repeated key at the same nesting level.
	ErrDuplicateKey = errors.New("duplicate key")
)
