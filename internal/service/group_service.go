package service

import (
	"context"
	"strings"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

type GroupService interface {
	GetMembers(ctx context.Context, groupID domain.TelegramID) ([]domain.Member, error)
	// GetWorkoutsByDate returns the members' workouts dated on day.
	GetWorkoutsByDate(ctx context.Context, groupID domain.TelegramID, day domain.Date) ([]domain.EnrichedWorkout, error)
	// RegisterContact records a bot first contact: the user, the chat as a
	// group, and the membership between them.
	RegisterContact(ctx context.Context, user *domain.User, group *domain.Group) error
}

type groupService struct {
	groupReader
}

func NewGroupService(
	groupRepo repository.GroupRepository,
	workoutRepo repository.WorkoutRepository,
	userRepo repository.UserRepository,
	logger logrus.FieldLogger,
) GroupService {
	return &groupService{groupReader{
		groupRepo:   groupRepo,
		workoutRepo: workoutRepo,
		userRepo:    userRepo,
		logger:      logger,
	}}
}

func (s *groupService) GetMembers(ctx context.Context, groupID domain.TelegramID) ([]domain.Member, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	ids, err := s.groupRepo.GetMemberIDs(ctx, groupID)
	if err != nil {
		return nil, storeError("get group members", err)
	}
	if len(ids) == 0 {
		return []domain.Member{}, nil
	}
	users, err := s.userRepo.GetByTelegramIDs(ctx, ids)
	if err != nil {
		return nil, storeError("get member users", err)
	}

	byID := make(map[domain.TelegramID]*domain.User, len(users))
	for i := range users {
		byID[users[i].TelegramID] = &users[i]
	}
	members := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		sub := domain.SubmitterFor(id, byID[id])
		members = append(members, domain.Member{Users: domain.MemberInfo{
			ID:         id,
			Username:   sub.Username,
			TelegramID: id,
		}})
	}
	return members, nil
}

func (s *groupService) GetWorkoutsByDate(ctx context.Context, groupID domain.TelegramID, day domain.Date) ([]domain.EnrichedWorkout, error) {
	if groupID == 0 {
		return nil, validationError("group id is required")
	}
	if day.IsZero() {
		return nil, validationError("date is required")
	}
	next := day.AddDays(1)
	return s.workoutsInRange(ctx, groupID, &day, &next)
}

func (s *groupService) RegisterContact(ctx context.Context, user *domain.User, group *domain.Group) error {
	if user == nil || user.TelegramID == 0 {
		return validationError("user id is required")
	}
	if group == nil || group.TelegramChatID == 0 {
		return validationError("chat id is required")
	}
	if strings.TrimSpace(group.Title) == "" {
		// Private chats have no title.
		group.Title = user.DisplayName()
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return storeError("upsert user", err)
	}
	if err := s.groupRepo.Upsert(ctx, group); err != nil {
		return storeError("upsert group", err)
	}
	if err := s.groupRepo.AddMember(ctx, user.TelegramID, group.TelegramChatID); err != nil {
		return storeError("add member", err)
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":  user.TelegramID,
		"group_id": group.TelegramChatID,
	}).Info("contact registered")
	return nil
}
