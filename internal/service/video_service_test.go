package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"carevid/video-library/internal/domain"
	"carevid/video-library/internal/repository"
	"carevid/video-library/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testMaxUploadSize = int64(2) << 30

// mockVideoRepository is a mock implementation of repository.VideoRepository
type mockVideoRepository struct {
	video     *domain.Video
	videos    []domain.Video
	err       error
	createErr error
	deleteErr error

	createCalled bool
	created      *domain.Video
	deleteCalled bool
	lastUpdate   repository.VideoUpdate
}

func (m *mockVideoRepository) Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error) {
	m.createCalled = true
	m.created = video
	if m.createErr != nil {
		return primitive.NilObjectID, m.createErr
	}
	video.ID = primitive.NewObjectID()
	return video.ID, nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.video, nil
}

func (m *mockVideoRepository) GetByStorageKey(ctx context.Context, storageKey string) (*domain.Video, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.video, nil
}

func (m *mockVideoRepository) List(ctx context.Context) ([]domain.Video, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.videos, nil
}

func (m *mockVideoRepository) Update(ctx context.Context, id primitive.ObjectID, update repository.VideoUpdate) (*domain.Video, error) {
	m.lastUpdate = update
	if m.err != nil {
		return nil, m.err
	}
	updated := *m.video
	if update.Title != nil {
		updated.Title = *update.Title
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	return &updated, nil
}

func (m *mockVideoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.deleteCalled = true
	return m.deleteErr
}

// mockObjectStorage is a mock implementation of storage.ObjectStorage
type mockObjectStorage struct {
	uploadErr    error
	signedURLErr error
	deleteErr    error
	signedURL    string

	uploadCalled  bool
	uploadedKey   string
	uploadedSize  int64
	signedExpires time.Duration
	deleteCalls   []string
	deleteCtxErrs []error
}

func (m *mockObjectStorage) Upload(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error {
	m.uploadCalled = true
	m.uploadedKey = objectKey
	m.uploadedSize = size
	return m.uploadErr
}

func (m *mockObjectStorage) SignedURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	m.signedExpires = expires
	if m.signedURLErr != nil {
		return "", m.signedURLErr
	}
	return m.signedURL, nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, objectKey string) error {
	m.deleteCalls = append(m.deleteCalls, objectKey)
	m.deleteCtxErrs = append(m.deleteCtxErrs, ctx.Err())
	return m.deleteErr
}

func newTestService(repo *mockVideoRepository, store *mockObjectStorage) VideoService {
	return NewVideoService(repo, store, testMaxUploadSize, 15*time.Minute, zap.NewNop())
}

func validUploadInput() UploadInput {
	return UploadInput{
		File:        strings.NewReader("fake video bytes"),
		FileName:    "procedure1.mp4",
		Size:        10 << 20,
		ContentType: "video/mp4",
		Title:       "IV Insertion",
		Description: "",
	}
}

func TestUpload_Success(t *testing.T) {
	repo := &mockVideoRepository{}
	store := &mockObjectStorage{}
	svc := newTestService(repo, store)

	video, err := svc.Upload(context.Background(), validUploadInput())

	require.NoError(t, err)
	require.NotNil(t, video)
	assert.Equal(t, "IV Insertion", video.Title)
	assert.Equal(t, "procedure1.mp4", video.FileName)
	assert.Equal(t, int64(10<<20), video.Size)
	assert.NotEmpty(t, video.StorageKey)
	assert.True(t, strings.HasPrefix(video.StorageKey, "videos/"))
	assert.True(t, strings.HasSuffix(video.StorageKey, ".mp4"))
	assert.Equal(t, video.StorageKey, store.uploadedKey)
	assert.Equal(t, video.Size, store.uploadedSize)
	assert.True(t, repo.createCalled)
	assert.Empty(t, store.deleteCalls)
}

func TestUpload_StorageKeysAreUnique(t *testing.T) {
	repo := &mockVideoRepository{}
	store := &mockObjectStorage{}
	svc := newTestService(repo, store)

	first, err := svc.Upload(context.Background(), validUploadInput())
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), validUploadInput())
	require.NoError(t, err)

	assert.NotEqual(t, first.StorageKey, second.StorageKey)
}

func TestUpload_ValidationRejectsBeforeAnyIO(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*UploadInput)
	}{
		{"empty title", func(in *UploadInput) { in.Title = "  " }},
		{"missing file", func(in *UploadInput) { in.File = nil }},
		{"zero size", func(in *UploadInput) { in.Size = 0 }},
		{"oversized", func(in *UploadInput) { in.Size = testMaxUploadSize + 1 }},
		{"non-video content type", func(in *UploadInput) { in.ContentType = "application/pdf" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockVideoRepository{}
			store := &mockObjectStorage{}
			svc := newTestService(repo, store)

			input := validUploadInput()
			tc.mutate(&input)

			_, err := svc.Upload(context.Background(), input)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.False(t, store.uploadCalled, "no object must be stored for invalid input")
			assert.False(t, repo.createCalled, "no record must be created for invalid input")
		})
	}
}

func TestUpload_ContentTypeCaseInsensitive(t *testing.T) {
	repo := &mockVideoRepository{}
	store := &mockObjectStorage{}
	svc := newTestService(repo, store)

	input := validUploadInput()
	input.ContentType = "Video/MP4"

	_, err := svc.Upload(context.Background(), input)
	require.NoError(t, err)
}

func TestUpload_StorageFailureCreatesNoRecord(t *testing.T) {
	repo := &mockVideoRepository{}
	store := &mockObjectStorage{uploadErr: errors.New("connection reset")}
	svc := newTestService(repo, store)

	_, err := svc.Upload(context.Background(), validUploadInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.False(t, repo.createCalled, "no orphan record on a failed upload")
}

func TestUpload_CreateFailureTriggersCompensatingDelete(t *testing.T) {
	repo := &mockVideoRepository{createErr: errors.New("store unavailable")}
	store := &mockObjectStorage{}
	svc := newTestService(repo, store)

	_, err := svc.Upload(context.Background(), validUploadInput())

	require.Error(t, err)
	require.Len(t, store.deleteCalls, 1, "compensating delete attempted exactly once")
	assert.Equal(t, store.uploadedKey, store.deleteCalls[0])
}

func TestUpload_CompensatingDeleteFailureDoesNotMaskOriginalError(t *testing.T) {
	createErr := errors.New("store unavailable")
	repo := &mockVideoRepository{createErr: createErr}
	store := &mockObjectStorage{deleteErr: errors.New("delete also failed")}
	svc := newTestService(repo, store)

	_, err := svc.Upload(context.Background(), validUploadInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, createErr)
	assert.Len(t, store.deleteCalls, 1)
}

func TestUpload_CompensatingDeleteSurvivesCallerCancellation(t *testing.T) {
	repo := &mockVideoRepository{createErr: errors.New("store unavailable")}
	store := &mockObjectStorage{}
	svc := newTestService(repo, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Upload(ctx, validUploadInput())

	require.Error(t, err)
	require.Len(t, store.deleteCtxErrs, 1)
	assert.NoError(t, store.deleteCtxErrs[0], "cleanup must run on a live context even when the caller is gone")
}

func TestUpload_DuplicateKeyBecomesConflict(t *testing.T) {
	repo := &mockVideoRepository{createErr: repository.ErrDuplicateKey}
	store := &mockObjectStorage{}
	svc := newTestService(repo, store)

	_, err := svc.Upload(context.Background(), validUploadInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, store.deleteCalls, 1, "orphan object is cleaned up on conflict too")
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockVideoRepository{err: repository.ErrNotFound}
	svc := newTestService(repo, &mockObjectStorage{})

	_, err := svc.Get(context.Background(), primitive.NewObjectID())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_OnlyTitleAndDescriptionReachTheRepository(t *testing.T) {
	existing := &domain.Video{
		ID:         primitive.NewObjectID(),
		Title:      "Old title",
		StorageKey: "videos/abc.mp4",
		Size:       1024,
	}
	repo := &mockVideoRepository{video: existing}
	svc := newTestService(repo, &mockObjectStorage{})

	title := "New title"
	updated, err := svc.Update(context.Background(), existing.ID, UpdateInput{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, existing.StorageKey, updated.StorageKey)
	assert.Equal(t, existing.Size, updated.Size)
	require.NotNil(t, repo.lastUpdate.Title)
	assert.Nil(t, repo.lastUpdate.Description)
}

func TestUpdate_IsIdempotent(t *testing.T) {
	existing := &domain.Video{ID: primitive.NewObjectID(), Title: "Old", StorageKey: "videos/abc.mp4"}
	repo := &mockVideoRepository{video: existing}
	svc := newTestService(repo, &mockObjectStorage{})

	title := "Same title"
	first, err := svc.Update(context.Background(), existing.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	second, err := svc.Update(context.Background(), existing.ID, UpdateInput{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.StorageKey, second.StorageKey)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &mockVideoRepository{err: repository.ErrNotFound}
	svc := newTestService(repo, &mockObjectStorage{})

	_, err := svc.Update(context.Background(), primitive.NewObjectID(), UpdateInput{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_RemovesRecordAndObject(t *testing.T) {
	existing := &domain.Video{ID: primitive.NewObjectID(), Title: "t", StorageKey: "videos/abc.mp4"}
	repo := &mockVideoRepository{video: existing}
	store := &mockObjectStorage{}
	svc := newTestService(repo, store)

	err := svc.Delete(context.Background(), existing.ID)

	require.NoError(t, err)
	assert.True(t, repo.deleteCalled)
	require.Len(t, store.deleteCalls, 1)
	assert.Equal(t, "videos/abc.mp4", store.deleteCalls[0])
}

func TestDelete_MissingIDReportsNotFound(t *testing.T) {
	repo := &mockVideoRepository{err: repository.ErrNotFound}
	store := &mockObjectStorage{}
	svc := newTestService(repo, store)

	err := svc.Delete(context.Background(), primitive.NewObjectID())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, store.deleteCalls)
}

func TestDelete_StorageFailureDoesNotBlockMetadataDeletion(t *testing.T) {
	existing := &domain.Video{ID: primitive.NewObjectID(), Title: "t", StorageKey: "videos/abc.mp4"}
	repo := &mockVideoRepository{video: existing}
	store := &mockObjectStorage{deleteErr: errors.New("storage unavailable")}
	svc := newTestService(repo, store)

	err := svc.Delete(context.Background(), existing.ID)

	assert.NoError(t, err, "gateway errors are ignored on delete")
	assert.True(t, repo.deleteCalled)
}

func TestSignedURL_Success(t *testing.T) {
	existing := &domain.Video{ID: primitive.NewObjectID(), Title: "t", StorageKey: "videos/abc.mp4"}
	repo := &mockVideoRepository{video: existing}
	store := &mockObjectStorage{signedURL: "https://bucket.example/videos/abc.mp4?X-Amz-Expires=900"}
	svc := newTestService(repo, store)

	url, err := svc.SignedURL(context.Background(), existing.ID)

	require.NoError(t, err)
	assert.Contains(t, url, "videos/abc.mp4")
	assert.Equal(t, 15*time.Minute, store.signedExpires, "the configured TTL must reach the gateway")
}

func TestSignedURL_PassesConfiguredTTL(t *testing.T) {
	existing := &domain.Video{ID: primitive.NewObjectID(), Title: "t", StorageKey: "videos/abc.mp4"}
	repo := &mockVideoRepository{video: existing}
	store := &mockObjectStorage{signedURL: "https://bucket.example/videos/abc.mp4"}
	svc := NewVideoService(repo, store, testMaxUploadSize, 1*time.Hour, zap.NewNop())

	_, err := svc.SignedURL(context.Background(), existing.ID)

	require.NoError(t, err)
	assert.Equal(t, 1*time.Hour, store.signedExpires)
}

func TestSignedURL_RecordMiss(t *testing.T) {
	repo := &mockVideoRepository{err: repository.ErrNotFound}
	svc := newTestService(repo, &mockObjectStorage{})

	_, err := svc.SignedURL(context.Background(), primitive.NewObjectID())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSignedURL_OrphanRecordReportsNotFound(t *testing.T) {
	existing := &domain.Video{ID: primitive.NewObjectID(), Title: "t", StorageKey: "videos/gone.mp4"}
	repo := &mockVideoRepository{video: existing}
	store := &mockObjectStorage{signedURLErr: storage.ErrObjectNotFound}
	svc := newTestService(repo, store)

	_, err := svc.SignedURL(context.Background(), existing.ID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewStorageKey_ExtensionHandling(t *testing.T) {
	key := newStorageKey("My Procedure.MP4")
	assert.True(t, strings.HasPrefix(key, "videos/"))
	assert.True(t, strings.HasSuffix(key, ".mp4"))

	noExt := newStorageKey("rawfile")
	assert.True(t, strings.HasPrefix(noExt, "videos/"))
	assert.False(t, strings.Contains(noExt, "."))
}
