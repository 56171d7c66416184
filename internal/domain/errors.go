package domain

import "errors"

var (
	// ErrInvalidEvent marks an event rejected by validation
	ErrInvalidEvent = errors.New("invalid analytics event")

	// ErrStoreFailure marks an unreachable store or a rejected write
	ErrStoreFailure = errors.New("metrics store failure")

	// ErrNotFound is returned by stores when no record exists for a key
	ErrNotFound = errors.New("record not found")
)
