// Package memory holds map-backed repositories for local runs and tests.
package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository stores users in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users map[domain.TelegramID]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[domain.TelegramID]domain.User)}
}

func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user.TelegramID == 0 {
		return errors.New("user telegram id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored, ok := r.users[user.TelegramID]
	if !ok {
		stored = domain.User{TelegramID: user.TelegramID, CreatedAt: now}
	}
	stored.Username = user.Username
	stored.FirstName = user.FirstName
	stored.UpdatedAt = now
	r.users[user.TelegramID] = stored
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, id domain.TelegramID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByTelegramIDs(ctx context.Context, ids []domain.TelegramID) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []domain.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

type membershipKey struct {
	user, group domain.TelegramID
}

// GroupRepository stores groups and memberships in memory.
type GroupRepository struct {
	mu      sync.RWMutex
	groups  map[domain.TelegramID]domain.Group
	members map[membershipKey]domain.Membership
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{
		groups:  make(map[domain.TelegramID]domain.Group),
		members: make(map[membershipKey]domain.Membership),
	}
}

func (r *GroupRepository) Upsert(ctx context.Context, group *domain.Group) error {
	if group.TelegramChatID == 0 {
		return errors.New("group chat id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored, ok := r.groups[group.TelegramChatID]
	if !ok {
		stored = domain.Group{TelegramChatID: group.TelegramChatID, CreatedAt: now}
	}
	stored.Title = group.Title
	stored.Type = group.Type
	stored.UpdatedAt = now
	r.groups[group.TelegramChatID] = stored
	group.UpdatedAt = now
	return nil
}

// Group returns a stored group; used by tests.
func (r *GroupRepository) Group(id domain.TelegramID) (domain.Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	return g, ok
}

func (r *GroupRepository) AddMember(ctx context.Context, userID, groupID domain.TelegramID) error {
	if userID == 0 || groupID == 0 {
		return errors.New("user id and group id are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := membershipKey{userID, groupID}
	if _, ok := r.members[key]; !ok {
		r.members[key] = domain.Membership{UserID: userID, GroupID: groupID, JoinedAt: time.Now().UTC()}
	}
	return nil
}

func (r *GroupRepository) GetMemberIDs(ctx context.Context, groupID domain.TelegramID) ([]domain.TelegramID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := []domain.TelegramID{}
	for key := range r.members {
		if key.group == groupID {
			ids = append(ids, key.user)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *GroupRepository) IsMember(ctx context.Context, userID, groupID domain.TelegramID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[membershipKey{userID, groupID}]
	return ok, nil
}

// WorkoutRepository stores workouts in memory.
type WorkoutRepository struct {
	mu       sync.RWMutex
	workouts map[primitive.ObjectID]domain.Workout
}

func NewWorkoutRepository() *WorkoutRepository {
	return &WorkoutRepository{workouts: make(map[primitive.ObjectID]domain.Workout)}
}

func clone(w domain.Workout) domain.Workout {
	w.Exercises = slices.Clone(w.Exercises)
	return w
}

func (r *WorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == 0 || workout.GroupID == 0 || workout.Date.IsZero() {
		return primitive.NilObjectID, errors.New("workout requires user_id, group_id and date")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	r.workouts[workout.ID] = clone(*workout)
	return workout.ID, nil
}

// Put stores a workout verbatim, bypassing Create's defaults. Tests use it
// to seed rows with fixed dates.
func (r *WorkoutRepository) Put(workout domain.Workout) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if workout.ID == primitive.NilObjectID {
		workout.ID = primitive.NewObjectID()
	}
	r.workouts[workout.ID] = clone(workout)
	return workout.ID
}

func (r *WorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	w = clone(w)
	return &w, nil
}

func matches(w domain.Workout, f repository.WorkoutFilter) bool {
	if f.UserIDs != nil && !slices.Contains(f.UserIDs, w.UserID) {
		return false
	}
	if f.From != nil && w.Date.Before(*f.From) {
		return false
	}
	if f.Until != nil && !w.Date.Before(*f.Until) {
		return false
	}
	return true
}

func (r *WorkoutRepository) Find(ctx context.Context, f repository.WorkoutFilter) ([]domain.Workout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Workout{}
	for _, w := range r.workouts {
		if matches(w, f) {
			out = append(out, clone(w))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *WorkoutRepository) Update(ctx context.Context, workout *domain.Workout) (*domain.Workout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.workouts[workout.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored.Exercises = slices.Clone(workout.Exercises)
	stored.Mood = workout.Mood
	stored.Notes = workout.Notes
	stored.UpdatedAt = time.Now().UTC()
	r.workouts[workout.ID] = stored

	out := clone(stored)
	return &out, nil
}

func (r *WorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workouts, id)
	return nil
}

// ExportRepository stores export metadata in memory.
type ExportRepository struct {
	mu      sync.RWMutex
	records []domain.ExportRecord
}

func NewExportRepository() *ExportRepository {
	return &ExportRepository{}
}

func (r *ExportRepository) Create(ctx context.Context, record *domain.ExportRecord) (primitive.ObjectID, error) {
	if record.GroupID == 0 || record.ObjectKey == "" {
		return primitive.NilObjectID, errors.New("export requires group_id and object_key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	record.ID = primitive.NewObjectID()
	record.CreatedAt = time.Now().UTC()
	r.records = append(r.records, *record)
	return record.ID, nil
}

func (r *ExportRepository) ListByGroup(ctx context.Context, groupID domain.TelegramID, limit int) ([]domain.ExportRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.ExportRecord{}
	// Appended in creation order; walk backwards for newest first.
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].GroupID != groupID {
			continue
		}
		out = append(out, r.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var (
	_ repository.ExportRepository  = (*ExportRepository)(nil)
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.GroupRepository   = (*GroupRepository)(nil)
	_ repository.WorkoutRepository = (*WorkoutRepository)(nil)
)
