package service

import (
	"context"
	"errors"
	"fmt"

	"bonded.app/memories/internal/entity"
	achievementRepo "bonded.app/memories/internal/modules/achievement/repository"
	leaderboardRepo "bonded.app/memories/internal/modules/leaderboard/repository"
	leaderboardService "bonded.app/memories/internal/modules/leaderboard/service"
	statDto "bonded.app/memories/internal/modules/stat/dto"
	statRepo "bonded.app/memories/internal/modules/stat/repository"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
)

// NameResolver resolves a member's display name, failing with ErrNotFound for non-members.
type NameResolver interface {
	DisplayNameIn(ctx context.Context, groupID, userID uuid.UUID) (string, error)
}

type StatService interface {
	GetUserStats(ctx context.Context, groupID, userID uuid.UUID) (*statDto.UserStats, error)
}

type statService struct {
	repo        statRepo.StatRepository
	counter     achievementRepo.ActivityCounter
	leaderboard leaderboardRepo.LeaderboardRepository
	names       NameResolver
}

func NewStatService(repo statRepo.StatRepository, counter achievementRepo.ActivityCounter, leaderboard leaderboardRepo.LeaderboardRepository, names NameResolver) StatService {
	return &statService{
		repo:        repo,
		counter:     counter,
		leaderboard: leaderboard,
		names:       names,
	}
}

func (s *statService) GetUserStats(ctx context.Context, groupID, userID uuid.UUID) (*statDto.UserStats, error) {
	name, err := s.names.DisplayNameIn(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	stats := &statDto.UserStats{
		UserID:         userID,
		Username:       name,
		CurrentStreaks: map[string]int{},
		LongestStreaks: map[string]int{},
	}

	counts := []struct {
		dst   *int
		count func(context.Context, uuid.UUID, *uuid.UUID) (int64, error)
		what  string
	}{
		{&stats.TotalPosts, s.counter.CountPosts, "posts"},
		{&stats.TotalEvents, s.counter.CountEvents, "events"},
		{&stats.TotalComments, s.counter.CountComments, "comments"},
		{&stats.TotalReactions, s.counter.CountReactions, "reactions"},
	}
	for _, c := range counts {
		n, err := c.count(ctx, userID, &groupID)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.what, err)
		}
		*c.dst = int(n)
	}

	completed, err := s.repo.CountCompletedChallenges(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("count completed challenges: %w", err)
	}
	stats.ChallengesCompleted = int(completed)

	achievements, err := s.repo.CountAchievements(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("count achievements: %w", err)
	}
	stats.Achievements = int(achievements)

	streaks, err := s.repo.ActiveStreaks(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	streakDays := 0
	for _, st := range streaks {
		stats.CurrentStreaks[st.StreakType] = st.CurrentStreak
		stats.LongestStreaks[st.StreakType] = st.LongestStreak
		streakDays += st.CurrentStreak
	}

	stats.TotalPoints = leaderboardService.Points(leaderboardService.Counts{
		Posts:               stats.TotalPosts,
		Events:              stats.TotalEvents,
		Comments:            stats.TotalComments,
		Reactions:           stats.TotalReactions,
		ChallengesCompleted: stats.ChallengesCompleted,
		StreakDays:          streakDays,
	})

	stats.Rank, err = s.rank(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *statService) rank(ctx context.Context, groupID, userID uuid.UUID) (*int, error) {
	snapshot, err := s.leaderboard.LatestSnapshot(ctx, groupID, entity.PeriodAllTime)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	entry, err := s.leaderboard.FindEntry(ctx, snapshot.ID, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return &entry.Rank, nil
}
