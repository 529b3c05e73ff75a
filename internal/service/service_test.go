package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/logging"
	"spotbuddy/workout-bot/internal/repository"
	"spotbuddy/workout-bot/internal/repository/memory"
	"spotbuddy/workout-bot/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	alice domain.TelegramID = 111
	bob   domain.TelegramID = 222
	carol domain.TelegramID = 333
	chat  domain.TelegramID = -1001
)

type fixture struct {
	users    *memory.UserRepository
	groups   *memory.GroupRepository
	workouts *memory.WorkoutRepository
	svc      WorkoutService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		users:    memory.NewUserRepository(),
		groups:   memory.NewGroupRepository(),
		workouts: memory.NewWorkoutRepository(),
	}
	svc, err := NewWorkoutService(f.workouts, f.groups, f.users, "UTC", logging.Discard(),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) join(t *testing.T, user domain.TelegramID, name string, group domain.TelegramID) {
	t.Helper()
	ctx := context.Background()
	if name != "" {
		require.NoError(t, f.users.Upsert(ctx, &domain.User{TelegramID: user, Username: name}))
	}
	require.NoError(t, f.groups.AddMember(ctx, user, group))
}

func (f *fixture) seed(user domain.TelegramID, date string) primitive.ObjectID {
	d, err := domain.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return f.workouts.Put(domain.Workout{
		UserID:    user,
		GroupID:   chat,
		Exercises: []domain.Exercise{domain.Strength("Squat", 5, 5)},
		Date:      d,
		Timezone:  "UTC",
		CreatedAt: d.Time(),
	})
}

func TestCreateWorkoutUsesSubmitterLocalDate(t *testing.T) {
	// 01:30 on Nov 11 in Singapore is still Nov 10 in UTC.
	now := time.Date(2025, 11, 10, 17, 30, 0, 0, time.UTC)
	f := newFixture(t, now)

	w, err := f.svc.CreateWorkout(context.Background(), CreateWorkoutInput{
		UserID:    alice,
		GroupID:   chat,
		Exercises: []domain.Exercise{domain.Strength("Bench Press", 3, 10)},
		Cardio:    &CardioInput{Type: "Running", Duration: 30},
		Mood:      domain.MoodGood,
		Notes:     "  felt strong ",
		Timezone:  "Asia/Singapore",
	})
	require.NoError(t, err)

	assert.False(t, w.ID.IsZero())
	assert.Equal(t, "2025-11-11", w.Date.String())
	assert.Equal(t, "Asia/Singapore", w.Timezone)
	assert.Equal(t, "felt strong", w.Notes)
	require.Len(t, w.Exercises, 2)
	assert.True(t, w.Exercises[1].IsCardio())
	assert.Equal(t, "Running 30 min", w.Exercises[1].String())

	stored, err := f.workouts.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.Date, stored.Date)
}

func TestCreateWorkoutDefaultsTimezone(t *testing.T) {
	f := newFixture(t, time.Date(2025, 11, 10, 23, 59, 0, 0, time.UTC))

	w, err := f.svc.CreateWorkout(context.Background(), CreateWorkoutInput{
		UserID: alice, GroupID: chat, Mood: domain.MoodOkay,
	})
	require.NoError(t, err)
	assert.Equal(t, "UTC", w.Timezone)
	assert.Equal(t, "2025-11-10", w.Date.String())
	assert.Empty(t, w.Exercises)
}

func TestCreateWorkoutValidation(t *testing.T) {
	f := newFixture(t, time.Now())
	squat := []domain.Exercise{domain.Strength("Squat", 5, 5)}

	tests := []struct {
		name string
		in   CreateWorkoutInput
	}{
		{"missing user", CreateWorkoutInput{GroupID: chat, Exercises: squat}},
		{"missing group", CreateWorkoutInput{UserID: alice, Exercises: squat}},
		{"nothing logged", CreateWorkoutInput{UserID: alice, GroupID: chat, Notes: "just notes"}},
		{"empty cardio only", CreateWorkoutInput{UserID: alice, GroupID: chat, Cardio: &CardioInput{}}},
		{"unknown mood", CreateWorkoutInput{UserID: alice, GroupID: chat, Mood: "ecstatic"}},
		{"unnamed exercise", CreateWorkoutInput{UserID: alice, GroupID: chat, Exercises: []domain.Exercise{domain.Strength(" ", 3, 3)}}},
		{"negative reps", CreateWorkoutInput{UserID: alice, GroupID: chat, Exercises: []domain.Exercise{domain.Strength("Row", 3, -1)}}},
		{"untyped cardio", CreateWorkoutInput{UserID: alice, GroupID: chat, Cardio: &CardioInput{Duration: 20}}},
		{"bad timezone", CreateWorkoutInput{UserID: alice, GroupID: chat, Exercises: squat, Timezone: "Mars/Olympus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateWorkout(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}

	all, err := f.workouts.Find(context.Background(), repository.WorkoutFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetUserWorkoutsMembershipIsAuthoritative(t *testing.T) {
	f := newFixture(t, time.Now())
	f.join(t, alice, "alice", chat)
	f.seed(alice, "2025-11-01")
	f.seed(alice, "2025-11-03")
	f.seed(bob, "2025-11-02")
	ctx := context.Background()

	all, err := f.svc.GetUserWorkouts(ctx, alice, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2025-11-03", all[0].Date.String())

	group := chat
	inGroup, err := f.svc.GetUserWorkouts(ctx, alice, &group)
	require.NoError(t, err)
	assert.Len(t, inGroup, 2)

	other := domain.TelegramID(-42)
	outside, err := f.svc.GetUserWorkouts(ctx, alice, &other)
	require.NoError(t, err)
	assert.NotNil(t, outside)
	assert.Empty(t, outside)
}

func TestGetGroupWorkouts(t *testing.T) {
	f := newFixture(t, time.Now())
	f.join(t, alice, "alice", chat)
	f.join(t, bob, "", chat) // no users row
	f.seed(alice, "2025-10-31")
	f.seed(alice, "2025-11-05")
	f.seed(bob, "2025-11-30")
	f.seed(carol, "2025-11-10") // not a member
	ctx := context.Background()

	t.Run("unbounded", func(t *testing.T) {
		got, err := f.svc.GetGroupWorkouts(ctx, chat, nil)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("month bounded and enriched", func(t *testing.T) {
		period, err := domain.NewMonthPeriod(2025, 11)
		require.NoError(t, err)

		got, err := f.svc.GetGroupWorkouts(ctx, chat, &period)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2025-11-30", got[0].Date.String())
		assert.Equal(t, domain.UnknownUsername, got[0].Users.Username)
		assert.Equal(t, bob, got[0].Users.TelegramID)
		assert.Equal(t, "alice", got[1].Users.Username)
	})

	t.Run("no members", func(t *testing.T) {
		got, err := f.svc.GetGroupWorkouts(ctx, -999, nil)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestUpdateWorkout(t *testing.T) {
	f := newFixture(t, time.Now())
	id := f.seed(alice, "2025-11-01")
	ctx := context.Background()

	updated, err := f.svc.UpdateWorkout(ctx, id.Hex(), []domain.Exercise{domain.Strength("Deadlift", 1, 5)}, domain.MoodAmazing, "pr")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Deadlift", updated.Exercises[0].Name)
	assert.Equal(t, domain.MoodAmazing, updated.Mood)
	assert.Equal(t, "2025-11-01", updated.Date.String())

	missing, err := f.svc.UpdateWorkout(ctx, primitive.NewObjectID().Hex(), nil, domain.MoodBad, "")
	require.NoError(t, err)
	assert.Nil(t, missing)

	malformed, err := f.svc.UpdateWorkout(ctx, "not-an-id", nil, domain.MoodBad, "")
	require.NoError(t, err)
	assert.Nil(t, malformed)

	_, err = f.svc.UpdateWorkout(ctx, id.Hex(), nil, "", "only notes")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestDeleteWorkoutIsIdempotent(t *testing.T) {
	f := newFixture(t, time.Now())
	id := f.seed(alice, "2025-11-01")
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteWorkout(ctx, id.Hex()))
	require.NoError(t, f.svc.DeleteWorkout(ctx, id.Hex()))
	require.NoError(t, f.svc.DeleteWorkout(ctx, "garbage"))

	_, err := f.workouts.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGroupService(t *testing.T) {
	f := newFixture(t, time.Now())
	groups := NewGroupService(f.groups, f.workouts, f.users, logging.Discard())
	ctx := context.Background()

	require.NoError(t, groups.RegisterContact(ctx,
		&domain.User{TelegramID: alice, Username: "alice"},
		&domain.Group{TelegramChatID: chat, Title: "Gym Rats", Type: "supergroup"}))
	// Repeating first contact is harmless.
	require.NoError(t, groups.RegisterContact(ctx,
		&domain.User{TelegramID: alice, Username: "alice2"},
		&domain.Group{TelegramChatID: chat, Title: "Gym Rats", Type: "supergroup"}))
	f.join(t, bob, "", chat)

	members, err := groups.GetMembers(ctx, chat)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, domain.MemberInfo{ID: alice, Username: "alice2", TelegramID: alice}, members[0].Users)
	assert.Equal(t, domain.UnknownUsername, members[1].Users.Username)

	f.seed(alice, "2025-11-05")
	f.seed(bob, "2025-11-05")
	f.seed(bob, "2025-11-06")
	day, err := domain.ParseDate("2025-11-05")
	require.NoError(t, err)
	onDay, err := groups.GetWorkoutsByDate(ctx, chat, day)
	require.NoError(t, err)
	assert.Len(t, onDay, 2)

	_, err = groups.GetWorkoutsByDate(ctx, chat, domain.Date{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRegisterContactPrivateChatTitle(t *testing.T) {
	f := newFixture(t, time.Now())
	groups := NewGroupService(f.groups, f.workouts, f.users, logging.Discard())

	require.NoError(t, groups.RegisterContact(context.Background(),
		&domain.User{TelegramID: alice, FirstName: "Alice"},
		&domain.Group{TelegramChatID: domain.TelegramID(alice), Type: "private"}))

	g, ok := f.groups.Group(domain.TelegramID(alice))
	require.True(t, ok)
	assert.Equal(t, "Alice", g.Title)
}

func TestGetUser(t *testing.T) {
	f := newFixture(t, time.Now())
	f.join(t, alice, "alice", chat)
	users := NewUserService(f.users)

	u, err := users.GetUser(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = users.GetUser(context.Background(), carol)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetCalendar(t *testing.T) {
	f := newFixture(t, time.Now())
	f.join(t, alice, "alice", chat)
	f.seed(alice, "2025-11-01")
	f.seed(alice, "2025-11-01")
	f.seed(alice, "2025-10-31")

	period, err := domain.NewMonthPeriod(2025, 11)
	require.NoError(t, err)
	cal, err := NewCalendarService(f.svc).GetCalendar(context.Background(), chat, period)
	require.NoError(t, err)

	// Nov 1 2025 is a Saturday: the grid opens on Oct 26.
	assert.Equal(t, "2025-10-26", cal.Days[0].Date.String())
	assert.False(t, cal.Days[5].HasWorkout, "Oct 31 is outside the month")
	assert.True(t, cal.Days[6].HasWorkout)
	assert.Equal(t, 2, cal.Days[6].WorkoutCount)
}

type failingWorkouts struct {
	repository.WorkoutRepository
}

func (failingWorkouts) Find(context.Context, repository.WorkoutFilter) ([]domain.Workout, error) {
	return nil, errors.New("connection reset")
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	groups := memory.NewGroupRepository()
	require.NoError(t, groups.AddMember(context.Background(), alice, chat))
	svc, err := NewWorkoutService(failingWorkouts{memory.NewWorkoutRepository()}, groups, memory.NewUserRepository(), "UTC", logging.Discard())
	require.NoError(t, err)

	_, err = svc.GetGroupWorkouts(context.Background(), chat, nil)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "find group workouts", storeErr.Op)
	assert.NotErrorIs(t, err, ErrValidationFailed)
}

type fakeStorage struct {
	objects map[string][]byte
	presign error
	deleted []string
}

func (s *fakeStorage) PutObject(_ context.Context, key, _ string, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = b
	return nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.presign != nil {
		return "", s.presign
	}
	return "https://files.example.com/" + key, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

func TestExportGroupMonth(t *testing.T) {
	f := newFixture(t, time.Now())
	f.join(t, alice, "alice", chat)
	f.seed(alice, "2025-11-02")
	f.workouts.Put(domain.Workout{
		UserID:    alice,
		GroupID:   chat,
		Exercises: []domain.Exercise{domain.Cardio("Rowing", 20)},
		Mood:      domain.MoodGood,
		Notes:     "easy, steady",
		Date:      domain.NewDate(2025, time.November, 4),
		Timezone:  "UTC",
	})
	store := &fakeStorage{objects: map[string][]byte{}}
	period, err := domain.NewMonthPeriod(2025, 11)
	require.NoError(t, err)

	records := memory.NewExportRepository()
	svc := NewExportService(f.svc, records, store, time.Minute, logging.Discard())
	export, err := svc.ExportGroupMonth(context.Background(), chat, period)
	require.NoError(t, err)

	assert.Equal(t, 2, export.Rows)
	assert.Regexp(t, `^exports/-1001/2025-11-[0-9a-f-]{36}\.csv$`, export.Key)
	assert.Equal(t, "https://files.example.com/"+export.Key, export.URL)
	assert.Equal(t,
		"date,username,telegram_id,exercises,mood,notes,timezone\n"+
			"2025-11-02,alice,111,Squat 5x5,,,UTC\n"+
			"2025-11-04,alice,111,Rowing 20 min,good,\"easy, steady\",UTC\n",
		string(store.objects[export.Key]))

	listed, err := svc.ListExports(context.Background(), chat)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, export.Key, listed[0].Key)
	assert.Equal(t, export.URL, listed[0].URL)
	assert.Equal(t, time.November, listed[0].Month)
	assert.Equal(t, 2, listed[0].Rows)

	others, err := svc.ListExports(context.Background(), -42)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestExportCleansUpWhenPresignFails(t *testing.T) {
	f := newFixture(t, time.Now())
	store := &fakeStorage{objects: map[string][]byte{}, presign: errors.New("signer down")}
	period, _ := domain.NewMonthPeriod(2025, 11)

	records := memory.NewExportRepository()
	_, err := NewExportService(f.svc, records, store, 0, logging.Discard()).ExportGroupMonth(context.Background(), chat, period)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.objects)

	listed, err := records.ListByGroup(context.Background(), chat, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestExportDisabled(t *testing.T) {
	f := newFixture(t, time.Now())
	period, _ := domain.NewMonthPeriod(2025, 11)

	svc := NewExportService(f.svc, memory.NewExportRepository(), storage.Disabled{}, 0, logging.Discard())
	_, err := svc.ExportGroupMonth(context.Background(), chat, period)
	assert.ErrorIs(t, err, ErrExportDisabled)
	_, err = svc.ListExports(context.Background(), chat)
	assert.ErrorIs(t, err, ErrExportDisabled)
}
