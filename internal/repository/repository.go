package repository

import (
	"context"

	"spotbuddy/workout-bot/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository stores people who have talked to the bot.
type UserRepository interface {
	// Upsert creates the user or refreshes its names, keyed by TelegramID.
	Upsert(ctx context.Context, user *domain.User) error
	GetByTelegramID(ctx context.Context, id domain.TelegramID) (*domain.User, error)
	// GetByTelegramIDs fetches all known users among ids in one round trip.
	// Unknown ids are skipped.
	GetByTelegramIDs(ctx context.Context, ids []domain.TelegramID) ([]domain.User, error)
}

// GroupRepository stores chats and their (append-only) memberships.
type GroupRepository interface {
	Upsert(ctx context.Context, group *domain.Group) error
	// AddMember is idempotent on the (user, group) pair.
	AddMember(ctx context.Context, userID, groupID domain.TelegramID) error
	GetMemberIDs(ctx context.Context, groupID domain.TelegramID) ([]domain.TelegramID, error)
	IsMember(ctx context.Context, userID, groupID domain.TelegramID) (bool, error)
}

// WorkoutFilter narrows Find. Zero values mean "no constraint", except that
// a non-nil empty UserIDs slice matches nothing.
type WorkoutFilter struct {
	UserIDs []domain.TelegramID
	From    *domain.Date // inclusive
	Until   *domain.Date // exclusive
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	// Find returns matching workouts, newest date first.
	Find(ctx context.Context, filter WorkoutFilter) ([]domain.Workout, error)
	// Update replaces exercises, mood and notes. Returns ErrNotFound when no
	// row has workout.ID.
	Update(ctx context.Context, workout *domain.Workout) (*domain.Workout, error)
	// Delete succeeds whether or not a row matched.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ExportRepository keeps metadata about CSV exports in object storage.
type ExportRepository interface {
	Create(ctx context.Context, record *domain.ExportRecord) (primitive.ObjectID, error)
	// ListByGroup returns up to limit records, newest first. limit <= 0
	// means no limit.
	ListByGroup(ctx context.Context, groupID domain.TelegramID, limit int) ([]domain.ExportRecord, error)
}
