package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultSignedURLExpiry is used when no TTL is configured.
const DefaultSignedURLExpiry = 15 * time.Minute

// ErrObjectNotFound is returned by SignedURL when the key has no backing
// object in the bucket.
var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectStorage defines the interface for object storage operations.
type ObjectStorage interface {
	// Upload stores the given content under objectKey, overwriting any
	// existing object with the same key.
	Upload(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error

	// SignedURL creates a temporary URL that allows GET requests for one
	// object without further authentication. Returns ErrObjectNotFound if
	// the key does not exist in the bucket.
	SignedURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// Delete removes an object. Deleting a key that does not exist is not
	// an error.
	Delete(ctx context.Context, objectKey string) error
}
