package mongo

import (
	"context"
	"testing"
	"time"

	"spotbuddy/workout-bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const exportsNS = "spot_buddy.exports"

func TestExportRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create stamps id and time", func(mt *mtest.T) {
		repo := NewMongoExportRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		record := &domain.ExportRecord{GroupID: -100, Year: 2025, Month: time.November, ObjectKey: "exports/-100/a.csv", Rows: 3}
		id, err := repo.Create(ctx, record)
		require.NoError(mt, err)
		assert.Equal(mt, record.ID, id)
		assert.False(mt, record.CreatedAt.IsZero())
	})

	mt.Run("create requires key", func(mt *mtest.T) {
		repo := NewMongoExportRepository(mt.DB)
		_, err := repo.Create(ctx, &domain.ExportRecord{GroupID: -100})
		assert.Error(mt, err)
	})

	mt.Run("list decodes records", func(mt *mtest.T) {
		repo := NewMongoExportRepository(mt.DB)
		created := time.Date(2025, 11, 30, 12, 0, 0, 0, time.UTC)
		doc := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "group_id", Value: int64(-100)},
			{Key: "year", Value: int32(2025)},
			{Key: "month", Value: int32(11)},
			{Key: "object_key", Value: "exports/-100/2025-11-x.csv"},
			{Key: "rows", Value: int32(7)},
			{Key: "created_at", Value: primitive.NewDateTimeFromTime(created)},
		}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, exportsNS, mtest.FirstBatch, doc),
		)

		records, err := repo.ListByGroup(ctx, -100, 5)
		require.NoError(mt, err)
		require.Len(mt, records, 1)
		assert.Equal(mt, domain.TelegramID(-100), records[0].GroupID)
		assert.Equal(mt, time.November, records[0].Month)
		assert.Equal(mt, 7, records[0].Rows)
		assert.True(mt, created.Equal(records[0].CreatedAt))
	})
}
