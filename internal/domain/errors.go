package domain

import "errors"

// Error taxonomy shared across services and handlers. Services classify
// failures by wrapping one of these sentinels; the API layer maps them to
// response status codes.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("object storage failure")
	ErrConflict   = errors.New("duplicate storage key")
)
