package repository

import (
	"context"

	"carevid/video-library/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate storage key")
)

// RepositoryError helps distinguish repository errors from driver errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// VideoUpdate carries the mutable subset of a video record. Nil fields are
// left untouched; storage key, size and content type are immutable and
// deliberately absent.
type VideoUpdate struct {
	Title       *string
	Description *string
}

// VideoRepository defines the interface for interacting with video catalog data.
type VideoRepository interface {
	// Create inserts a new record. Fails with ErrDuplicateKey if another
	// record already claims the same storage key.
	Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error)
	GetByStorageKey(ctx context.Context, storageKey string) (*domain.Video, error)
	List(ctx context.Context) ([]domain.Video, error)
	// Update applies the given metadata changes. Fails with ErrNotFound if
	// the id is absent.
	Update(ctx context.Context, id primitive.ObjectID, update VideoUpdate) (*domain.Video, error)
	// Delete removes the record. Fails with ErrNotFound if the id is
	// absent, which callers must treat differently from an I/O failure.
	Delete(ctx context.Context, id primitive.ObjectID) error
}
