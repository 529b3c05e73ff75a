package service

import (
	"context"

	"spotbuddy/workout-bot/internal/domain"
	"spotbuddy/workout-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

// groupReader resolves a group's workouts through its memberships. The steps
// are independent round trips; a membership change between them can yield a
// slightly stale result.
type groupReader struct {
	groupRepo   repository.GroupRepository
	workoutRepo repository.WorkoutRepository
	userRepo    repository.UserRepository
	logger      logrus.FieldLogger
}

// workoutsInRange returns the enriched workouts of every member of groupID
// dated within [from, until). Nil bounds leave that side open.
func (g *groupReader) workoutsInRange(ctx context.Context, groupID domain.TelegramID, from, until *domain.Date) ([]domain.EnrichedWorkout, error) {
	memberIDs, err := g.groupRepo.GetMemberIDs(ctx, groupID)
	if err != nil {
		return nil, storeError("get group members", err)
	}
	if len(memberIDs) == 0 {
		return []domain.EnrichedWorkout{}, nil
	}

	workouts, err := g.workoutRepo.Find(ctx, repository.WorkoutFilter{
		UserIDs: memberIDs,
		From:    from,
		Until:   until,
	})
	if err != nil {
		return nil, storeError("find group workouts", err)
	}
	return g.enrich(ctx, workouts), nil
}

// enrich attaches submitter info using one batched lookup over the distinct
// user ids. A failed lookup degrades to placeholders rather than failing the
// whole view.
func (g *groupReader) enrich(ctx context.Context, workouts []domain.Workout) []domain.EnrichedWorkout {
	seen := make(map[domain.TelegramID]struct{}, len(workouts))
	ids := make([]domain.TelegramID, 0, len(workouts))
	for _, w := range workouts {
		if _, ok := seen[w.UserID]; !ok {
			seen[w.UserID] = struct{}{}
			ids = append(ids, w.UserID)
		}
	}

	byID := make(map[domain.TelegramID]*domain.User, len(ids))
	if len(ids) > 0 {
		users, err := g.userRepo.GetByTelegramIDs(ctx, ids)
		if err != nil {
			g.logger.WithError(err).WithField("user_count", len(ids)).Warn("submitter lookup failed, using placeholders")
		}
		for i := range users {
			byID[users[i].TelegramID] = &users[i]
		}
	}

	out := make([]domain.EnrichedWorkout, 0, len(workouts))
	for _, w := range workouts {
		out = append(out, domain.EnrichedWorkout{
			Workout: w,
			Users:   domain.SubmitterFor(w.UserID, byID[w.UserID]),
		})
	}
	return out
}
