package local

import "errors"

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for collection or record names that would escape the store
	ErrInvalidID = errors.New("invalid record id")
)
