package catalog

import "errors"

// Catalog error constants
var (
	// ErrValidationFailed is returned when structural schema validation
	// rejects a document.
	ErrValidationFailed = errors.New("schema validation failed")

	// ErrMissingReference is returned when a policy or integration
	// references a component that does not exist in the store.
	ErrMissingReference = errors.New("missing reference")

	// ErrCollectionPut is returned when a collection name is submitted to
	// the update path. Whole collections cannot be updated atomically;
	// callers must delete and recreate. The message travels verbatim in
	// the API envelope, capitalization included.
	ErrCollectionPut = errors.New("Invalid resource type 'collection' for PUT operation")
)
