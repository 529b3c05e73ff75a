package mongo

import (
	"context"
	"errors"
	"time"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoGroupRepository struct {
	groups  *mongo.Collection
	members *mongo.Collection
}

// NewMongoGroupRepository creates a repository over the groups and
// group_members collections.
func NewMongoGroupRepository(db *mongo.Database) repository.GroupRepository {
	return &mongoGroupRepository{
		groups:  db.Collection(GroupsCollection),
		members: db.Collection(MembershipsCollection),
	}
}

func (r *mongoGroupRepository) Upsert(ctx context.Context, group *domain.Group) error {
	if group.TelegramChatID == 0 {
		return errors.New("group chat id is required")
	}
	now := time.Now().UTC()
	filter := bson.M{"telegram_chat_id": group.TelegramChatID}
	update := bson.M{
		"$set": bson.M{
			"title":      group.Title,
			"type":       group.Type,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	if _, err := r.groups.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return err
	}
	group.UpdatedAt = now
	return nil
}

// AddMember upserts the (user, group) pair; repeated calls leave joined_at untouched.
func (r *mongoGroupRepository) AddMember(ctx context.Context, userID, groupID domain.TelegramID) error {
	if userID == 0 || groupID == 0 {
		return errors.New("user id and group id are required")
	}
	filter := bson.M{"user_id": userID, "group_id": groupID}
	update := bson.M{"$setOnInsert": bson.M{"joined_at": time.Now().UTC()}}
	_, err := r.members.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Lost a race with a concurrent upsert of the same pair.
		return nil
	}
	return err
}

func (r *mongoGroupRepository) GetMemberIDs(ctx context.Context, groupID domain.TelegramID) ([]domain.TelegramID, error) {
	findOptions := options.Find().SetProjection(bson.M{"user_id": 1, "_id": 0})
	cursor, err := r.members.Find(ctx, bson.M{"group_id": groupID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []domain.Membership
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]domain.TelegramID, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (r *mongoGroupRepository) IsMember(ctx context.Context, userID, groupID domain.TelegramID) (bool, error) {
	n, err := r.members.CountDocuments(ctx, bson.M{"user_id": userID, "group_id": groupID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EnsureGroupIndexes creates the unique keys for groups and memberships.
func EnsureGroupIndexes(ctx context.Context, groups, members *mongo.Collection) error {
	if _, err := groups.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "telegram_chat_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := members.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "group_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "group_id", Value: 1}},
		},
	})
	return err
}
