package domain

import "errors"

// Request errors.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
)

// Capability errors.
var (
	// ErrNotReady is returned while the corpus index or an external model is still warming up.
	// Callers are expected to retry.
	ErrNotReady          = errors.New("not ready")
	ErrRetrievalFailure  = errors.New("retrieval failure")
	ErrGenerationFailure = errors.New("generation failure")
)

// Store errors.
var (
	ErrStoreFailure = errors.New("session store failure")
)
