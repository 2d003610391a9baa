package repository

import (
	"context"
	"errors"
	"time"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaderboardRepository interface {
	// GetOrCreateSnapshot returns the snapshot keyed by (group, period, start), creating it when missing.
	GetOrCreateSnapshot(ctx context.Context, groupID uuid.UUID, period string, start, now time.Time) (*entity.Leaderboard, error)
	LatestSnapshot(ctx context.Context, groupID uuid.UUID, period string) (*entity.Leaderboard, error)

	PostCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
	EventCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
	CommentCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
	ReactionCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
	CompletedChallengeCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error)
	// ActiveStreakDays sums current_streak over active streaks, regardless of period.
	ActiveStreakDays(ctx context.Context, groupID uuid.UUID) (map[uuid.UUID]int, error)

	// UpsertEntry writes counts, points and position, keeping the row of an existing (snapshot, user) entry.
	UpsertEntry(ctx context.Context, entry *entity.LeaderboardEntry) error
	// PruneEntries deletes entries of users not in keep.
	PruneEntries(ctx context.Context, leaderboardID uuid.UUID, keep []uuid.UUID) error
	ListEntries(ctx context.Context, leaderboardID uuid.UUID) ([]entity.LeaderboardEntry, error)
	SaveRanks(ctx context.Context, entries []entity.LeaderboardEntry) error
	RankedEntries(ctx context.Context, leaderboardID uuid.UUID, limit int) ([]entity.LeaderboardEntry, error)
	FindEntry(ctx context.Context, leaderboardID, userID uuid.UUID) (*entity.LeaderboardEntry, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) GetOrCreateSnapshot(ctx context.Context, groupID uuid.UUID, period string, start, now time.Time) (*entity.Leaderboard, error) {
	snapshot := &entity.Leaderboard{GroupID: groupID, Period: period, StartDate: start, IsActive: true}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(snapshot).Error
	if err != nil {
		return nil, err
	}

	var found entity.Leaderboard
	err = r.db.WithContext(ctx).
		Where("group_id = ? AND period = ? AND start_date = ?", groupID, period, start).
		First(&found).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&found).Updates(map[string]any{
		"end_date":  now,
		"is_active": true,
	}).Error
	return &found, err
}

func (r *leaderboardRepository) LatestSnapshot(ctx context.Context, groupID uuid.UUID, period string) (*entity.Leaderboard, error) {
	var snapshot entity.Leaderboard
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND period = ? AND is_active = ?", groupID, period, true).
		Order("start_date desc").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

type countRow struct {
	UserID uuid.UUID
	N      int
}

func scanCounts(q *gorm.DB) (map[uuid.UUID]int, error) {
	var rows []countRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.N
	}
	return counts, nil
}

func (r *leaderboardRepository) PostCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	return scanCounts(r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Select("author_id AS user_id, COUNT(*) AS n").
		Where("group_id = ? AND created_at >= ?", groupID, since).
		Group("author_id"))
}

func (r *leaderboardRepository) EventCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	return scanCounts(r.db.WithContext(ctx).
		Model(&entity.Event{}).
		Select("creator_id AS user_id, COUNT(*) AS n").
		Where("group_id = ? AND created_at >= ?", groupID, since).
		Group("creator_id"))
}

func (r *leaderboardRepository) CommentCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	return scanCounts(r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Select("comments.user_id AS user_id, COUNT(*) AS n").
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("posts.group_id = ? AND comments.created_at >= ?", groupID, since).
		Group("comments.user_id"))
}

func (r *leaderboardRepository) ReactionCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	return scanCounts(r.db.WithContext(ctx).
		Model(&entity.Reaction{}).
		Select("reactions.user_id AS user_id, COUNT(*) AS n").
		Joins("JOIN posts ON posts.id = reactions.post_id").
		Where("posts.group_id = ? AND reactions.created_at >= ?", groupID, since).
		Group("reactions.user_id"))
}

func (r *leaderboardRepository) CompletedChallengeCounts(ctx context.Context, groupID uuid.UUID, since time.Time) (map[uuid.UUID]int, error) {
	return scanCounts(r.db.WithContext(ctx).
		Model(&entity.ChallengeProgress{}).
		Select("challenge_progresses.user_id AS user_id, COUNT(*) AS n").
		Joins("JOIN challenges ON challenges.id = challenge_progresses.challenge_id").
		Where("challenges.group_id = ? AND challenge_progresses.is_completed = ? AND challenge_progresses.completed_at >= ?", groupID, true, since).
		Group("challenge_progresses.user_id"))
}

func (r *leaderboardRepository) ActiveStreakDays(ctx context.Context, groupID uuid.UUID) (map[uuid.UUID]int, error) {
	return scanCounts(r.db.WithContext(ctx).
		Model(&entity.Streak{}).
		Select("user_id, SUM(current_streak) AS n").
		Where("group_id = ? AND is_active = ?", groupID, true).
		Group("user_id"))
}

func (r *leaderboardRepository) UpsertEntry(ctx context.Context, entry *entity.LeaderboardEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "leaderboard_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "points", "position",
				"posts_count", "events_count", "comments_count", "reactions_count",
				"challenges_completed", "streaks_maintained",
			}),
		}).
		Create(entry).Error
}

func (r *leaderboardRepository) PruneEntries(ctx context.Context, leaderboardID uuid.UUID, keep []uuid.UUID) error {
	q := r.db.WithContext(ctx).Where("leaderboard_id = ?", leaderboardID)
	if len(keep) > 0 {
		q = q.Where("user_id NOT IN ?", keep)
	}
	return q.Delete(&entity.LeaderboardEntry{}).Error
}

func (r *leaderboardRepository) ListEntries(ctx context.Context, leaderboardID uuid.UUID) ([]entity.LeaderboardEntry, error) {
	var entries []entity.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("leaderboard_id = ?", leaderboardID).
		Order("position asc, id asc").
		Find(&entries).Error
	return entries, err
}

func (r *leaderboardRepository) SaveRanks(ctx context.Context, entries []entity.LeaderboardEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if err := tx.Model(&entity.LeaderboardEntry{}).Where("id = ?", e.ID).Update("rank", e.Rank).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *leaderboardRepository) RankedEntries(ctx context.Context, leaderboardID uuid.UUID, limit int) ([]entity.LeaderboardEntry, error) {
	q := r.db.WithContext(ctx).
		Where("leaderboard_id = ?", leaderboardID).
		Order("rank asc, position asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []entity.LeaderboardEntry
	err := q.Find(&entries).Error
	return entries, err
}

func (r *leaderboardRepository) FindEntry(ctx context.Context, leaderboardID, userID uuid.UUID) (*entity.LeaderboardEntry, error) {
	var entry entity.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("leaderboard_id = ? AND user_id = ?", leaderboardID, userID).
		First(&entry).Error
	if err != nil {
		return nil, apperror.NotFound(err)
	}
	return &entry, nil
}
