package repository

import (
	"context"
	"errors"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository interface {
	Find(ctx context.Context, userID, groupID uuid.UUID, kind string) (*entity.Streak, error)
	// CreateIfAbsent inserts the streak unless its key already exists and reports whether it did.
	CreateIfAbsent(ctx context.Context, streak *entity.Streak) (bool, error)
	Save(ctx context.Context, streak *entity.Streak) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, userID *uuid.UUID) ([]entity.Streak, error)
}

type streakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) Find(ctx context.Context, userID, groupID uuid.UUID, kind string) (*entity.Streak, error) {
	var s entity.Streak
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ? AND streak_type = ?", userID, groupID, kind).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *streakRepository) CreateIfAbsent(ctx context.Context, streak *entity.Streak) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(streak)
	return res.RowsAffected > 0, res.Error
}

func (r *streakRepository) Save(ctx context.Context, streak *entity.Streak) error {
	return r.db.WithContext(ctx).
		Model(streak).
		Select("current_streak", "longest_streak", "last_activity", "is_active").
		Updates(streak).Error
}

func (r *streakRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, userID *uuid.UUID) ([]entity.Streak, error) {
	var streaks []entity.Streak
	q := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	err := q.Order("current_streak desc, longest_streak desc, id asc").Find(&streaks).Error
	return streaks, err
}
