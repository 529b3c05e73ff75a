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

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(UsersCollection),
	}
}

// Upsert inserts the user or refreshes its names. created_at is only set on insert.
func (r *mongoUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user.TelegramID == 0 {
		return errors.New("user telegram id is required")
	}
	now := time.Now().UTC()
	filter := bson.M{"telegram_id": user.TelegramID}
	update := bson.M{
		"$set": bson.M{
			"username":   user.Username,
			"first_name": user.FirstName,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

// GetByTelegramID retrieves a user by their Telegram id.
func (r *mongoUserRepository) GetByTelegramID(ctx context.Context, id domain.TelegramID) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, bson.M{"telegram_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByTelegramIDs looks up every id with a single $in query.
func (r *mongoUserRepository) GetByTelegramIDs(ctx context.Context, ids []domain.TelegramID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"telegram_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "telegram_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
