package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a snapshot is not found.
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("invalid snapshot ID")
)
