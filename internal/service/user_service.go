package service

import (
	"context"
	"errors"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/repository"
)

type UserService interface {
	GetUser(ctx context.Context, id domain.TelegramID) (*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUser(ctx context.Context, id domain.TelegramID) (*domain.User, error) {
	if id == 0 {
		return nil, validationError("user id is required")
	}
	user, err := s.userRepo.GetByTelegramID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}
	return user, nil
}
