package repository

import (
	"context"

	"bonded.app/memories/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	ListActive(ctx context.Context) ([]entity.Achievement, error)
	// CreateIfAbsent inserts definitions whose name is not taken yet and returns how many were inserted.
	CreateIfAbsent(ctx context.Context, achievements []entity.Achievement) (int64, error)
	GrantedIDs(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (map[uuid.UUID]bool, error)
	// Grant inserts the award unless (user, achievement, group) already exists and reports whether it did.
	Grant(ctx context.Context, grant *entity.UserAchievement) (bool, error)
	ListGrants(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]entity.UserAchievement, error)
}

// ActivityCounter answers the lifetime counts criteria are checked against.
// A nil group counts across every group.
type ActivityCounter interface {
	CountPosts(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (int64, error)
	CountComments(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (int64, error)
	CountEvents(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (int64, error)
	CountReactions(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (int64, error)
	// HasActiveStreak reports an active streak of at least length days, of any kind when kind is empty.
	HasActiveStreak(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID, kind string, length int) (bool, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) ListActive(ctx context.Context) ([]entity.Achievement, error) {
	var achievements []entity.Achievement
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc, name asc").
		Find(&achievements).Error
	return achievements, err
}

func (r *achievementRepository) CreateIfAbsent(ctx context.Context, achievements []entity.Achievement) (int64, error) {
	if len(achievements) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&achievements)
	return res.RowsAffected, res.Error
}

func (r *achievementRepository) GrantedIDs(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.UserAchievement{}).
		Where("user_id = ? AND group_key = ?", userID, entity.GroupKey(groupID)).
		Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, err
	}

	granted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		granted[id] = true
	}
	return granted, nil
}

func (r *achievementRepository) Grant(ctx context.Context, grant *entity.UserAchievement) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(grant)
	return res.RowsAffected > 0, res.Error
}

func (r *achievementRepository) ListGrants(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]entity.UserAchievement, error) {
	var grants []entity.UserAchievement
	q := r.db.WithContext(ctx).Preload("Achievement").Where("user_id = ?", userID)
	if groupID != nil {
		q = q.Where("group_key = ?", entity.GroupKey(groupID))
	}
	err := q.Order("awarded_at asc, id asc").Find(&grants).Error
	return grants, err
}

type activityCounter struct {
	db *gorm.DB
}

func NewActivityCounter(db *gorm.DB) ActivityCounter {
	return &activityCounter{db: db}
}

func (c *activityCounter) CountPosts(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (int64, error) {
	q := c.db.WithContext(ctx).Model(&entity.Post{}).Where("author_id = ?", userID)
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (c *activityCounter) CountComments(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (int64, error) {
	q := c.db.WithContext(ctx).Model(&entity.Comment{}).Where("comments.user_id = ?", userID)
	if groupID != nil {
		q = q.Joins("JOIN posts ON posts.id = comments.post_id").Where("posts.group_id = ?", *groupID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (c *activityCounter) CountEvents(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (int64, error) {
	q := c.db.WithContext(ctx).Model(&entity.Event{}).Where("creator_id = ?", userID)
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (c *activityCounter) CountReactions(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) (int64, error) {
	q := c.db.WithContext(ctx).Model(&entity.Reaction{}).Where("reactions.user_id = ?", userID)
	if groupID != nil {
		q = q.Joins("JOIN posts ON posts.id = reactions.post_id").Where("posts.group_id = ?", *groupID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (c *activityCounter) HasActiveStreak(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID, kind string, length int) (bool, error) {
	q := c.db.WithContext(ctx).Model(&entity.Streak{}).
		Where("user_id = ? AND is_active = ? AND current_streak >= ?", userID, true, length)
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}
	if kind != "" {
		q = q.Where("streak_type = ?", kind)
	}
	var n int64
	err := q.Limit(1).Count(&n).Error
	return n > 0, err
}
