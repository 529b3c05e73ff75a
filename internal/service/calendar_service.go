package service

import (
	"context"

	"spotbuddy/workout-bot/internal/domain"
)

// CalendarService builds the month grid shown by the mini-app.
type CalendarService interface {
	GetCalendar(ctx context.Context, groupID domain.TelegramID, period domain.MonthPeriod) (domain.Calendar, error)
}

type calendarService struct {
	workouts WorkoutService
}

func NewCalendarService(workouts WorkoutService) CalendarService {
	return &calendarService{workouts: workouts}
}

func (s *calendarService) GetCalendar(ctx context.Context, groupID domain.TelegramID, period domain.MonthPeriod) (domain.Calendar, error) {
	// The grid spills into neighbouring months but only in-month days are
	// marked, so the month's workouts are enough.
	workouts, err := s.workouts.GetGroupWorkouts(ctx, groupID, &period)
	if err != nil {
		return domain.Calendar{}, err
	}
	return domain.BuildCalendar(period.Year, period.Month, workouts), nil
}
