package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video stores catalog metadata about an uploaded procedure video.
// The actual file resides in object storage under StorageKey.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	StorageKey  string             `bson:"storageKey" json:"fileKey"` // unique key in the bucket, immutable after creation
	FileName    string             `bson:"fileName" json:"fileName"`  // original filename provided by the client
	ContentType string             `bson:"contentType" json:"contentType"`
	Size        int64              `bson:"size" json:"size"` // file size in bytes
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
