package mongo

import (
	"context"
	"errors"
	"time"

	"carevid/video-library/internal/domain"
	"carevid/video-library/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const videoCollectionName = "videos"

// mongoVideoRepository implements repository.VideoRepository
type mongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new video repository backed by MongoDB.
func NewMongoVideoRepository(db *mongo.Database) repository.VideoRepository {
	return &mongoVideoRepository{
		collection: db.Collection(videoCollectionName),
	}
}

// Create inserts a new video record into the catalog.
func (r *mongoVideoRepository) Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error) {
	if video.Title == "" || video.StorageKey == "" {
		return primitive.NilObjectID, errors.New("video requires title and storageKey")
	}

	video.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, video)
	if err != nil {
		// The unique index on storageKey turns a reused key into a
		// duplicate-key error.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a video record by its ID.
func (r *mongoVideoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	var video domain.Video
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// GetByStorageKey retrieves the video record tracking the given object key.
func (r *mongoVideoRepository) GetByStorageKey(ctx context.Context, storageKey string) (*domain.Video, error) {
	var video domain.Video
	err := r.collection.FindOne(ctx, bson.M{"storageKey": storageKey}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// List returns all video records, newest first.
func (r *mongoVideoRepository) List(ctx context.Context) ([]domain.Video, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	videos := []domain.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// Update applies title/description changes and returns the updated record.
// Storage key, size and content type are never part of the update document.
func (r *mongoVideoRepository) Update(ctx context.Context, id primitive.ObjectID, update repository.VideoUpdate) (*domain.Video, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}

	findOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var video domain.Video
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, findOptions).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// Delete removes a video record. A missing id is reported as ErrNotFound,
// distinct from a driver failure.
func (r *mongoVideoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureVideoIndexes creates necessary indexes for the videos collection.
func EnsureVideoIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// One object in the bucket per record, enforced at insert time.
			Keys:    bson.D{{Key: "storageKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
