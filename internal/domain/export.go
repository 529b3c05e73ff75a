package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExportRecord stores metadata about a CSV export written to object
// storage. The file itself lives in the bucket under ObjectKey.
type ExportRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   TelegramID         `bson:"group_id" json:"group_id"`
	Year      int                `bson:"year" json:"year"`
	Month     time.Month         `bson:"month" json:"month"`
	ObjectKey string             `bson:"object_key" json:"object_key"`
	Rows      int                `bson:"rows" json:"rows"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
