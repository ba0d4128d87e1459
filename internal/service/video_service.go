package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"carevid/video-library/internal/domain"
	"carevid/video-library/internal/repository"
	"carevid/video-library/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// storageKeyPrefix namespaces all uploaded objects inside the bucket.
const storageKeyPrefix = "videos"

// compensationTimeout bounds the cleanup delete of an orphaned object.
const compensationTimeout = 30 * time.Second

// UploadInput carries an incoming file and its descriptive metadata. It is
// transient and never persisted as-is.
type UploadInput struct {
	File        io.Reader
	FileName    string
	Size        int64
	ContentType string
	Title       string
	Description string
}

// UpdateInput carries a partial metadata change. Nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
}

// VideoService exposes the video library workflows.
type VideoService interface {
	// Upload validates the input, stores the file and persists a catalog
	// record. On a metadata failure after a successful store, the uploaded
	// object is cleaned up best-effort before the error is surfaced.
	Upload(ctx context.Context, input UploadInput) (*domain.Video, error)

	List(ctx context.Context) ([]domain.Video, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Video, error)
	Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) (*domain.Video, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// SignedURL resolves a record to a temporary playback URL for its object.
	SignedURL(ctx context.Context, id primitive.ObjectID) (string, error)
}

// videoService implements the VideoService interface.
type videoService struct {
	videoRepo     repository.VideoRepository
	objectStorage storage.ObjectStorage
	maxUploadSize int64
	signedURLTTL  time.Duration
	logger        *zap.Logger
}

// NewVideoService creates a new instance of videoService.
func NewVideoService(
	videoRepo repository.VideoRepository,
	objectStorage storage.ObjectStorage,
	maxUploadSize int64,
	signedURLTTL time.Duration,
	logger *zap.Logger,
) VideoService {
	return &videoService{
		videoRepo:     videoRepo,
		objectStorage: objectStorage,
		maxUploadSize: maxUploadSize,
		signedURLTTL:  signedURLTTL,
		logger:        logger,
	}
}

// validateUpload rejects bad input before any storage or persistence I/O.
func (s *videoService) validateUpload(input UploadInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if input.File == nil {
		return fmt.Errorf("%w: file is required", domain.ErrValidation)
	}
	if input.Size <= 0 {
		return fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	if input.Size > s.maxUploadSize {
		return fmt.Errorf("%w: file exceeds the maximum size of %d bytes", domain.ErrValidation, s.maxUploadSize)
	}
	if !strings.HasPrefix(strings.ToLower(input.ContentType), "video/") {
		return fmt.Errorf("%w: content type %q is not a video media type", domain.ErrValidation, input.ContentType)
	}
	return nil
}

// newStorageKey derives a key unique per upload: a fresh UUID plus the
// original filename's extension. Identical filenames never collide.
func newStorageKey(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", storageKeyPrefix, uuid.NewString(), ext)
}

func (s *videoService) Upload(ctx context.Context, input UploadInput) (*domain.Video, error) {
	if err := s.validateUpload(input); err != nil {
		return nil, err
	}

	objectKey := newStorageKey(input.FileName)

	// Object first, record second: every persisted record is guaranteed a
	// backing object, at the cost of a possible transient orphan object if
	// the insert below fails.
	if err := s.objectStorage.Upload(ctx, objectKey, input.File, input.Size, input.ContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	video := &domain.Video{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		StorageKey:  objectKey,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		Size:        input.Size,
	}

	if _, err := s.videoRepo.Create(ctx, video); err != nil {
		// Compensate once: remove the now-orphaned object. The request
		// context may already be dead (caller gone, deadline hit), so the
		// cleanup runs on a detached context with its own short deadline.
		// Its own failure is logged for operators but never masks the
		// original error.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		defer cancel()
		if delErr := s.objectStorage.Delete(cleanupCtx, objectKey); delErr != nil {
			s.logger.Warn("compensating delete failed, orphan object left behind",
				zap.String("key", objectKey),
				zap.Error(delErr),
			)
		}
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConflict, objectKey)
		}
		return nil, err
	}

	return video, nil
}

func (s *videoService) List(ctx context.Context) ([]domain.Video, error) {
	return s.videoRepo.List(ctx)
}

func (s *videoService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return video, nil
}

func (s *videoService) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) (*domain.Video, error) {
	video, err := s.videoRepo.Update(ctx, id, repository.VideoUpdate{
		Title:       input.Title,
		Description: input.Description,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return video, nil
}

// Delete removes the catalog record and, best-effort, the backing object.
// Storage unavailability never blocks metadata deletion.
func (s *videoService) Delete(ctx context.Context, id primitive.ObjectID) error {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if err := s.videoRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if video.StorageKey != "" {
		if delErr := s.objectStorage.Delete(ctx, video.StorageKey); delErr != nil {
			s.logger.Warn("failed to delete backing object, orphan object left behind",
				zap.String("key", video.StorageKey),
				zap.Error(delErr),
			)
		}
	}

	return nil
}

func (s *videoService) SignedURL(ctx context.Context, id primitive.ObjectID) (string, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	if video.StorageKey == "" {
		return "", domain.ErrNotFound
	}

	url, err := s.objectStorage.SignedURL(ctx, video.StorageKey, s.signedURLTTL)
	if err != nil {
		// A record whose object is gone is the orphan-record anomaly;
		// surface it as not-found rather than a server failure.
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn("record has no backing object",
				zap.String("id", id.Hex()),
				zap.String("key", video.StorageKey),
			)
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	return url, nil
}
