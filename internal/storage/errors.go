package storage

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup, including
	// records that exist but belong to another user.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)
