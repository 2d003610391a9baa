package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bonded.app/memories/internal/entity"
	streakRepo "bonded.app/memories/internal/modules/streak/repository"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
)

// Kinds lists the activity kinds that keep a streak.
var Kinds = []string{
	entity.ActivityPost,
	entity.ActivityEvent,
	entity.ActivityComment,
	entity.ActivityReaction,
	entity.ActivityLogin,
}

func ValidKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Advance applies an activity on day to s and reports whether s changed.
// A repeat on the same day (or an activity older than the last one) is a no-op,
// the next day extends the streak and any longer gap restarts it at 1.
func Advance(s *entity.Streak, day time.Time) bool {
	day = DateOf(day)
	gapDays := int(day.Sub(DateOf(s.LastActivity)).Hours() / 24)

	switch {
	case gapDays <= 0:
		return false
	case gapDays == 1:
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActivity = day
	s.IsActive = true
	return true
}

type StreakService interface {
	RecordActivity(ctx context.Context, userID, groupID uuid.UUID, kind string, ts time.Time) (*entity.Streak, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, userID *uuid.UUID) ([]entity.Streak, error)
	GetForUser(ctx context.Context, userID, groupID uuid.UUID) ([]entity.Streak, error)
}

type streakService struct {
	repo streakRepo.StreakRepository
}

func NewStreakService(repo streakRepo.StreakRepository) StreakService {
	return &streakService{repo: repo}
}

func (s *streakService) RecordActivity(ctx context.Context, userID, groupID uuid.UUID, kind string, ts time.Time) (*entity.Streak, error) {
	if !ValidKind(kind) {
		return nil, fmt.Errorf("unknown streak kind %q: %w", kind, apperror.ErrInvalidInput)
	}
	day := DateOf(ts)

	streak, err := s.repo.Find(ctx, userID, groupID, kind)
	if errors.Is(err, apperror.ErrNotFound) {
		streak = &entity.Streak{
			UserID:        userID,
			GroupID:       groupID,
			StreakType:    kind,
			CurrentStreak: 1,
			LongestStreak: 1,
			LastActivity:  day,
			IsActive:      true,
		}
		created, err := s.repo.CreateIfAbsent(ctx, streak)
		if err != nil {
			return nil, fmt.Errorf("create streak: %w", err)
		}
		if created {
			return streak, nil
		}
		// lost a race with a concurrent first activity, fall through to advance the winner's row
		streak, err = s.repo.Find(ctx, userID, groupID, kind)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if !Advance(streak, day) {
		return streak, nil
	}
	if err := s.repo.Save(ctx, streak); err != nil {
		return nil, fmt.Errorf("save streak: %w", err)
	}
	return streak, nil
}

func (s *streakService) ListByGroup(ctx context.Context, groupID uuid.UUID, userID *uuid.UUID) ([]entity.Streak, error) {
	return s.repo.ListByGroup(ctx, groupID, userID)
}

func (s *streakService) GetForUser(ctx context.Context, userID, groupID uuid.UUID) ([]entity.Streak, error) {
	return s.repo.ListByGroup(ctx, groupID, &userID)
}
