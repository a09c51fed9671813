package membertypes

import "errors"

var (
	// ErrNotFound indicates the member type is not registered or not active.
	ErrNotFound = errors.New("member type not found")

	// ErrAlreadyExists indicates a member type with the same name is already registered.
	ErrAlreadyExists = errors.New("member type already exists")

	// ErrInvalidName indicates an empty or non-normalized member type name.
	ErrInvalidName = errors.New("invalid member type name")
)
