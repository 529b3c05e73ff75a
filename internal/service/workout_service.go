package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/observability"
	"spotbuddy/workout-bot/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CardioInput is the optional cardio block of a submission.
type CardioInput struct {
	Type     string `json:"type"`
	Duration int    `json:"duration"`
}

func (c *CardioInput) empty() bool {
	return c == nil || (strings.TrimSpace(c.Type) == "" && c.Duration == 0)
}

// CreateWorkoutInput carries one mini-app submission.
type CreateWorkoutInput struct {
	UserID    domain.TelegramID
	GroupID   domain.TelegramID
	Exercises []domain.Exercise
	Cardio    *CardioInput
	Mood      domain.Mood
	Notes     string
	Timezone  string
}

type WorkoutService interface {
	CreateWorkout(ctx context.Context, in CreateWorkoutInput) (*domain.Workout, error)
	GetUserWorkouts(ctx context.Context, userID domain.TelegramID, groupID *domain.TelegramID) ([]domain.Workout, error)
	GetGroupWorkouts(ctx context.Context, groupID domain.TelegramID, period *domain.MonthPeriod) ([]domain.EnrichedWorkout, error)
	// UpdateWorkout returns a nil workout and no error when id matches nothing.
	UpdateWorkout(ctx context.Context, id string, exercises []domain.Exercise, mood domain.Mood, notes string) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, id string) error
}

// WorkoutOption customises a workout service.
type WorkoutOption func(*workoutService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) WorkoutOption {
	return func(s *workoutService) { s.now = now }
}

type workoutService struct {
	groupReader
	defaultZone *time.Location
	now         func() time.Time
}

// NewWorkoutService builds the service. defaultTimezone is used for
// submissions that do not name a zone.
func NewWorkoutService(
	workoutRepo repository.WorkoutRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	defaultTimezone string,
	logger logrus.FieldLogger,
	opts ...WorkoutOption,
) (WorkoutService, error) {
	zone, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return nil, err
	}
	s := &workoutService{
		groupReader: groupReader{
			groupRepo:   groupRepo,
			workoutRepo: workoutRepo,
			userRepo:    userRepo,
			logger:      logger,
		},
		defaultZone: zone,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func validateExercises(exercises []domain.Exercise) error {
	for i, ex := range exercises {
		if ex.IsCardio() {
			if strings.TrimSpace(ex.Type) == "" {
				return validationError("exercise %d: cardio type is required", i+1)
			}
		} else if strings.TrimSpace(ex.Name) == "" {
			return validationError("exercise %d: name is required", i+1)
		}
		if ex.Sets < 0 || ex.Reps < 0 || (ex.Duration != nil && *ex.Duration < 0) {
			return validationError("exercise %d: counts must not be negative", i+1)
		}
	}
	return nil
}

func (s *workoutService) resolveZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.defaultZone, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, validationError("unknown timezone %q", name)
	}
	return loc, nil
}

// CreateWorkout validates and stores a submission dated by the submitter's
// local calendar day.
func (s *workoutService) CreateWorkout(ctx context.Context, in CreateWorkoutInput) (*domain.Workout, error) {
	if in.UserID == 0 || in.GroupID == 0 {
		return nil, validationError("user_id and group_id are required")
	}
	if len(in.Exercises) == 0 && in.Cardio.empty() && in.Mood == "" {
		return nil, validationError("log at least one exercise, a cardio entry or a mood")
	}
	if !in.Mood.Valid() {
		return nil, validationError("unknown mood %q", in.Mood)
	}
	if err := validateExercises(in.Exercises); err != nil {
		return nil, err
	}

	exercises := append([]domain.Exercise{}, in.Exercises...)
	if !in.Cardio.empty() {
		if strings.TrimSpace(in.Cardio.Type) == "" {
			return nil, validationError("cardio type is required")
		}
		if in.Cardio.Duration < 0 {
			return nil, validationError("cardio duration must not be negative")
		}
		exercises = append(exercises, domain.Cardio(strings.TrimSpace(in.Cardio.Type), in.Cardio.Duration))
	}

	zone, err := s.resolveZone(in.Timezone)
	if err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		UserID:    in.UserID,
		GroupID:   in.GroupID,
		Exercises: exercises,
		Mood:      in.Mood,
		Notes:     strings.TrimSpace(in.Notes),
		Timezone:  zone.String(),
		Date:      domain.DateIn(s.now(), zone),
	}
	if _, err := s.workoutRepo.Create(ctx, workout); err != nil {
		return nil, storeError("create workout", err)
	}
	observability.RecordWorkoutCreated()
	s.logger.WithFields(logrus.Fields{
		"workout_id": workout.ID.Hex(),
		"user_id":    workout.UserID,
		"date":       workout.Date.String(),
	}).Info("workout created")
	return workout, nil
}

// GetUserWorkouts lists a user's workouts, newest first. When groupID is
// given the user must be a member of that group, otherwise nothing is
// visible through it.
func (s *workoutService) GetUserWorkouts(ctx context.Context, userID domain.TelegramID, groupID *domain.TelegramID) ([]domain.Workout, error) {
	if userID == 0 {
		return nil, validationError("user id is required")
	}
	if groupID != nil {
		member, err := s.groupRepo.IsMember(ctx, userID, *groupID)
		if err != nil {
			return nil, storeError("check membership", err)
		}
		if !member {
			return []domain.Workout{}, nil
		}
	}
	workouts, err := s.workoutRepo.Find(ctx, repository.WorkoutFilter{UserIDs: []domain.TelegramID{userID}})
	if err != nil {
		return nil, storeError("find user workouts", err)
	}
	return workouts, nil
}

func (s *workoutService) GetGroupWorkouts(ctx context.Context, groupID domain.TelegramID, period *domain.MonthPeriod) ([]domain.EnrichedWorkout, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	var from, until *domain.Date
	if period != nil {
		start, end := period.Range()
		from, until = &start, &end
	}
	return s.workoutsInRange(ctx, groupID, from, until)
}

func (s *workoutService) UpdateWorkout(ctx context.Context, id string, exercises []domain.Exercise, mood domain.Mood, notes string) (*domain.Workout, error) {
	if len(exercises) == 0 && mood == "" {
		return nil, validationError("log at least one exercise, a cardio entry or a mood")
	}
	if !mood.Valid() {
		return nil, validationError("unknown mood %q", mood)
	}
	if err := validateExercises(exercises); err != nil {
		return nil, err
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Unknown ids and malformed ids look the same to callers.
		return nil, nil
	}
	updated, err := s.workoutRepo.Update(ctx, &domain.Workout{
		ID:        objectID,
		Exercises: exercises,
		Mood:      mood,
		Notes:     strings.TrimSpace(notes),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, storeError("update workout", err)
	}
	return updated, nil
}

// DeleteWorkout is idempotent.
func (s *workoutService) DeleteWorkout(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if err := s.workoutRepo.Delete(ctx, objectID); err != nil {
		return storeError("delete workout", err)
	}
	return nil
}
