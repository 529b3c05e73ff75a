// internal/repository/mongo/workout_repo.go
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Workout schema versions. Version 1 rows (or rows without the field) hold
// an RFC 3339 UTC instant in "date"; version 2 rows hold the submitter's
// local calendar date as YYYY-MM-DD. Both sort and range-compare correctly
// as strings against YYYY-MM-DD bounds.
const (
	workoutSchemaLegacyInstant = 1
	workoutSchemaLocalDate     = 2
)

// workoutDocument is the stored shape of a workout. Exercises are kept as
// JSON text.
type workoutDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        domain.TelegramID  `bson:"user_id"`
	GroupID       domain.TelegramID  `bson:"group_id"`
	Exercises     string             `bson:"exercises"`
	Mood          string             `bson:"mood,omitempty"`
	Notes         string             `bson:"notes,omitempty"`
	Timezone      string             `bson:"timezone"`
	Date          string             `bson:"date"`
	SchemaVersion int                `bson:"schema_version,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func encodeExercises(exercises []domain.Exercise) (string, error) {
	if exercises == nil {
		exercises = []domain.Exercise{}
	}
	b, err := json.Marshal(exercises)
	if err != nil {
		return "", fmt.Errorf("encoding exercises: %w", err)
	}
	return string(b), nil
}

func toDocument(w *domain.Workout) (*workoutDocument, error) {
	exercises, err := encodeExercises(w.Exercises)
	if err != nil {
		return nil, err
	}
	return &workoutDocument{
		ID:            w.ID,
		UserID:        w.UserID,
		GroupID:       w.GroupID,
		Exercises:     exercises,
		Mood:          string(w.Mood),
		Notes:         w.Notes,
		Timezone:      w.Timezone,
		Date:          w.Date.String(),
		SchemaVersion: workoutSchemaLocalDate,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}, nil
}

func (d *workoutDocument) toDomain() (*domain.Workout, error) {
	exercises := []domain.Exercise{}
	if d.Exercises != "" {
		if err := json.Unmarshal([]byte(d.Exercises), &exercises); err != nil {
			return nil, fmt.Errorf("decoding exercises of workout %s: %w", d.ID.Hex(), err)
		}
	}
	date, err := domain.ParseStoredDate(d.Date)
	if err != nil {
		return nil, fmt.Errorf("workout %s (schema v%d): %w", d.ID.Hex(), max(d.SchemaVersion, workoutSchemaLegacyInstant), err)
	}
	return &domain.Workout{
		ID:        d.ID,
		UserID:    d.UserID,
		GroupID:   d.GroupID,
		Exercises: exercises,
		Mood:      domain.Mood(d.Mood),
		Notes:     d.Notes,
		Timezone:  d.Timezone,
		Date:      date,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
	logger     logrus.FieldLogger
}

// NewMongoWorkoutRepository creates a new Workout repository. Rows that
// cannot be decoded are reported through logger and left out of reads.
func NewMongoWorkoutRepository(db *mongo.Database, logger logrus.FieldLogger) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(WorkoutsCollection),
		logger:     logger,
	}
}

// Create inserts a new workout.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == 0 || workout.GroupID == 0 || workout.Date.IsZero() {
		return primitive.NilObjectID, errors.New("workout requires user_id, group_id and date")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	doc, err := toDocument(workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var doc workoutDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func buildWorkoutFilter(f repository.WorkoutFilter) bson.M {
	filter := bson.M{}
	if f.UserIDs != nil {
		filter["user_id"] = bson.M{"$in": f.UserIDs}
	}
	dateRange := bson.M{}
	if f.From != nil {
		dateRange["$gte"] = f.From.String()
	}
	if f.Until != nil {
		dateRange["$lt"] = f.Until.String()
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}
	return filter
}

// Find returns workouts matching f, newest first.
func (r *mongoWorkoutRepository) Find(ctx context.Context, f repository.WorkoutFilter) ([]domain.Workout, error) {
	if f.UserIDs != nil && len(f.UserIDs) == 0 {
		return []domain.Workout{}, nil
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, buildWorkoutFilter(f), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []workoutDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	workouts := make([]domain.Workout, 0, len(docs))
	for i := range docs {
		w, err := docs[i].toDomain()
		if err != nil {
			r.logger.WithError(err).WithField("workout_id", docs[i].ID.Hex()).Warn("skipping undecodable workout")
			continue
		}
		workouts = append(workouts, *w)
	}
	return workouts, nil
}

// Update replaces the mutable fields and returns the stored workout.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) (*domain.Workout, error) {
	if workout.ID == primitive.NilObjectID {
		return nil, repository.ErrNotFound
	}
	exercises, err := encodeExercises(workout.Exercises)
	if err != nil {
		return nil, err
	}

	// Owner, group, timezone and date are fixed at creation.
	updateDoc := bson.M{
		"$set": bson.M{
			"exercises":  exercises,
			"mood":       string(workout.Mood),
			"notes":      workout.Notes,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc workoutDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": workout.ID}, updateDoc, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

// Delete removes the workout; a missing row is not an error.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Per-member lookups bounded by date (user history, group month views)
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "date", Value: -1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
