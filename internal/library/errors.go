package library

import "errors"

var (
	// ErrNotFound indicates the requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates an entity with the same identity is already stored.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrConstraint indicates a foreign key or check constraint violation.
	ErrConstraint = errors.New("constraint violation")

	// ErrInvalidIdentity indicates an identity that is not a lowercase SHA-1 hex digest.
	// It is always reported together with ErrConstraint.
	ErrInvalidIdentity = errors.New("invalid identity")
)
