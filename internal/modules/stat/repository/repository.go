package repository

import (
	"context"

	"bonded.app/memories/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatRepository interface {
	CountCompletedChallenges(ctx context.Context, groupID, userID uuid.UUID) (int64, error)
	ActiveStreaks(ctx context.Context, groupID, userID uuid.UUID) ([]entity.Streak, error)
	CountAchievements(ctx context.Context, groupID, userID uuid.UUID) (int64, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) CountCompletedChallenges(ctx context.Context, groupID, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&entity.ChallengeProgress{}).
		Joins("JOIN challenges ON challenges.id = challenge_progresses.challenge_id").
		Where("challenges.group_id = ? AND challenge_progresses.user_id = ? AND challenge_progresses.is_completed = ?", groupID, userID, true).
		Count(&n).Error
	return n, err
}

func (r *statRepository) ActiveStreaks(ctx context.Context, groupID, userID uuid.UUID) ([]entity.Streak, error) {
	var streaks []entity.Streak
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ? AND is_active = ?", groupID, userID, true).
		Order("streak_type asc").
		Find(&streaks).Error
	return streaks, err
}

// CountAchievements counts awards earned in the group plus individual awards.
func (r *statRepository) CountAchievements(ctx context.Context, groupID, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&entity.UserAchievement{}).
		Where("user_id = ? AND group_key IN ?", userID, []string{entity.GroupKey(&groupID), entity.GroupKey(nil)}).
		Count(&n).Error
	return n, err
}
