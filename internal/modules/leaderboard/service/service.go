package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bonded.app/memories/internal/entity"
	leaderboardDto "bonded.app/memories/internal/modules/leaderboard/dto"
	leaderboardRepo "bonded.app/memories/internal/modules/leaderboard/repository"
	membershipService "bonded.app/memories/internal/modules/membership/service"
	"bonded.app/memories/pkg/apperror"
	"bonded.app/memories/pkg/logger"
	"bonded.app/memories/pkg/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Members lists the members a snapshot is computed for.
type Members interface {
	GroupExists(ctx context.Context, groupID uuid.UUID) error
	Members(ctx context.Context, groupID uuid.UUID) ([]membershipService.Member, error)
}

type LeaderboardService interface {
	// Calculate recomputes the (group, period) snapshot from the raw activity tables.
	Calculate(ctx context.Context, groupID uuid.UUID, period string) (*leaderboardDto.LeaderboardResponse, error)
	// GetEntries returns the latest snapshot's entries by rank. limit <= 0 returns all.
	GetEntries(ctx context.Context, groupID uuid.UUID, period string, limit int) ([]leaderboardDto.LeaderboardEntry, error)
}

type leaderboardService struct {
	repo     leaderboardRepo.LeaderboardRepository
	members  Members
	rdb      *redis.Client
	cacheTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewLeaderboardService builds the aggregator. A nil redis client disables the entry cache.
func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, members Members, rdb *redis.Client, cacheTTL time.Duration, log *zap.Logger) LeaderboardService {
	return NewLeaderboardServiceWithClock(repo, members, rdb, cacheTTL, log, func() time.Time { return time.Now().UTC() })
}

func NewLeaderboardServiceWithClock(repo leaderboardRepo.LeaderboardRepository, members Members, rdb *redis.Client, cacheTTL time.Duration, log *zap.Logger, now func() time.Time) LeaderboardService {
	return &leaderboardService{
		repo:     repo,
		members:  members,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		log:      logger.OrNop(log),
		now:      now,
	}
}

// CacheKey is the redis key holding the ranked entries of a group's period.
func CacheKey(groupID uuid.UUID, period string) string {
	return fmt.Sprintf("leaderboard:%s:%s", groupID.String(), period)
}

func (s *leaderboardService) Calculate(ctx context.Context, groupID uuid.UUID, period string) (resp *leaderboardDto.LeaderboardResponse, err error) {
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("unknown period %q: %w", period, apperror.ErrInvalidInput)
	}
	if err := s.members.GroupExists(ctx, groupID); err != nil {
		return nil, err
	}

	started := time.Now()
	defer func() { metrics.ObserveLeaderboard(period, time.Since(started), err) }()

	now := s.now()
	since, err := PeriodStart(period, now)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.GetOrCreateSnapshot(ctx, groupID, period, SnapshotStart(since), now)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	members, err := s.members.Members(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	counts, err := s.collect(ctx, groupID, since)
	if err != nil {
		return nil, err
	}

	keep := make([]uuid.UUID, 0, len(members))
	for i, m := range members {
		c := counts.of(m.UserID)
		entry := &entity.LeaderboardEntry{
			LeaderboardID:       snapshot.ID,
			UserID:              m.UserID,
			Username:            m.DisplayName,
			Points:              Points(c),
			Position:            i,
			PostsCount:          c.Posts,
			EventsCount:         c.Events,
			CommentsCount:       c.Comments,
			ReactionsCount:      c.Reactions,
			ChallengesCompleted: c.ChallengesCompleted,
			StreaksMaintained:   c.StreakDays,
		}
		if err := s.repo.UpsertEntry(ctx, entry); err != nil {
			return nil, fmt.Errorf("upsert entry for %s: %w", m.UserID, err)
		}
		keep = append(keep, m.UserID)
	}
	if err := s.repo.PruneEntries(ctx, snapshot.ID, keep); err != nil {
		return nil, fmt.Errorf("prune entries: %w", err)
	}

	entries, err := s.repo.ListEntries(ctx, snapshot.ID)
	if err != nil {
		return nil, err
	}
	RankEntries(entries)
	if err := s.repo.SaveRanks(ctx, entries); err != nil {
		return nil, fmt.Errorf("save ranks: %w", err)
	}

	s.invalidate(ctx, groupID, period)
	s.log.Info("leaderboard calculated",
		zap.String("group_id", groupID.String()),
		zap.String("period", period),
		zap.Int("entries", len(entries)),
	)
	return leaderboardDto.NewLeaderboardResponse(snapshot, entries), nil
}

type memberCounts struct {
	posts, events, comments, reactions, challenges, streakDays map[uuid.UUID]int
}

func (m memberCounts) of(userID uuid.UUID) Counts {
	return Counts{
		Posts:               m.posts[userID],
		Events:              m.events[userID],
		Comments:            m.comments[userID],
		Reactions:           m.reactions[userID],
		ChallengesCompleted: m.challenges[userID],
		StreakDays:          m.streakDays[userID],
	}
}

// collect runs every count query up front so a failing one aborts before any entry is written.
func (s *leaderboardService) collect(ctx context.Context, groupID uuid.UUID, since time.Time) (memberCounts, error) {
	var (
		m   memberCounts
		err error
	)
	if m.posts, err = s.repo.PostCounts(ctx, groupID, since); err != nil {
		return m, fmt.Errorf("count posts: %w", err)
	}
	if m.events, err = s.repo.EventCounts(ctx, groupID, since); err != nil {
		return m, fmt.Errorf("count events: %w", err)
	}
	if m.comments, err = s.repo.CommentCounts(ctx, groupID, since); err != nil {
		return m, fmt.Errorf("count comments: %w", err)
	}
	if m.reactions, err = s.repo.ReactionCounts(ctx, groupID, since); err != nil {
		return m, fmt.Errorf("count reactions: %w", err)
	}
	if m.challenges, err = s.repo.CompletedChallengeCounts(ctx, groupID, since); err != nil {
		return m, fmt.Errorf("count completed challenges: %w", err)
	}
	if m.streakDays, err = s.repo.ActiveStreakDays(ctx, groupID); err != nil {
		return m, fmt.Errorf("sum streaks: %w", err)
	}
	return m, nil
}

func (s *leaderboardService) GetEntries(ctx context.Context, groupID uuid.UUID, period string, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("unknown period %q: %w", period, apperror.ErrInvalidInput)
	}

	if entries, ok := s.cached(ctx, groupID, period); ok {
		return head(entries, limit), nil
	}

	snapshot, err := s.repo.LatestSnapshot(ctx, groupID, period)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return []leaderboardDto.LeaderboardEntry{}, nil
		}
		return nil, err
	}

	rows, err := s.repo.RankedEntries(ctx, snapshot.ID, 0)
	if err != nil {
		return nil, err
	}
	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(rows))
	for _, e := range rows {
		entries = append(entries, leaderboardDto.NewLeaderboardEntry(e))
	}

	s.store(ctx, groupID, period, entries)
	return head(entries, limit), nil
}

func head(entries []leaderboardDto.LeaderboardEntry, limit int) []leaderboardDto.LeaderboardEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func (s *leaderboardService) cached(ctx context.Context, groupID uuid.UUID, period string) ([]leaderboardDto.LeaderboardEntry, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, CacheKey(groupID, period)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("leaderboard cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var entries []leaderboardDto.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.log.Warn("leaderboard cache entry is corrupt", zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (s *leaderboardService) store(ctx context.Context, groupID uuid.UUID, period string, entries []leaderboardDto.LeaderboardEntry) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, CacheKey(groupID, period), raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("leaderboard cache write failed", zap.Error(err))
	}
}

func (s *leaderboardService) invalidate(ctx context.Context, groupID uuid.UUID, period string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, CacheKey(groupID, period)).Err(); err != nil {
		s.log.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}
