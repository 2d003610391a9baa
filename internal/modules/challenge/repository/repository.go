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

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *entity.Challenge) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Challenge, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, currentOnly bool, now time.Time) ([]entity.Challenge, error)
	// FindCurrent returns the enabled challenges of the group whose window contains now.
	FindCurrent(ctx context.Context, groupID uuid.UUID, categories []string, now time.Time) ([]entity.Challenge, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)

	GetOrCreateProgress(ctx context.Context, challengeID, userID uuid.UUID, now time.Time) (*entity.ChallengeProgress, error)
	FindProgress(ctx context.Context, challengeID, userID uuid.UUID) (*entity.ChallengeProgress, error)
	// SaveProgress writes the count. When complete is set it also stamps completion,
	// guarded by is_completed = false, and reports whether this call did the stamping.
	SaveProgress(ctx context.Context, progress *entity.ChallengeProgress, complete bool) (bool, error)
	ListProgress(ctx context.Context, challengeID uuid.UUID) ([]entity.ChallengeProgress, error)
	ListProgressByGroup(ctx context.Context, groupID uuid.UUID) ([]entity.ChallengeProgress, error)
	CountCompleted(ctx context.Context, challengeID uuid.UUID) (int64, error)
	CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error)
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *entity.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Challenge, error) {
	var c entity.Challenge
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *challengeRepository) ListByGroup(ctx context.Context, groupID uuid.UUID, currentOnly bool, now time.Time) ([]entity.Challenge, error) {
	var challenges []entity.Challenge
	q := r.db.WithContext(ctx).Where("group_id = ?", groupID)
	if currentOnly {
		q = q.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now)
	}
	err := q.Order("start_date desc, created_at desc").Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) FindCurrent(ctx context.Context, groupID uuid.UUID, categories []string, now time.Time) ([]entity.Challenge, error) {
	var challenges []entity.Challenge
	if len(categories) == 0 {
		return challenges, nil
	}
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND category IN ? AND is_active = ?", groupID, categories, true).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Order("start_date asc, id asc").
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Challenge{}).
		Where("is_active = ? AND end_date < ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *challengeRepository) GetOrCreateProgress(ctx context.Context, challengeID, userID uuid.UUID, now time.Time) (*entity.ChallengeProgress, error) {
	p := entity.ChallengeProgress{ChallengeID: challengeID, UserID: userID, LastActivity: now}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&p).Error
	if err != nil {
		return nil, err
	}
	return r.FindProgress(ctx, challengeID, userID)
}

func (r *challengeRepository) FindProgress(ctx context.Context, challengeID, userID uuid.UUID) (*entity.ChallengeProgress, error) {
	var p entity.ChallengeProgress
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *challengeRepository) SaveProgress(ctx context.Context, progress *entity.ChallengeProgress, complete bool) (bool, error) {
	stamped := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entity.ChallengeProgress{}).
			Where("id = ?", progress.ID).
			Updates(map[string]any{
				"current_count": progress.CurrentCount,
				"last_activity": progress.LastActivity,
			}).Error
		if err != nil {
			return err
		}
		if !complete {
			return nil
		}

		res := tx.Model(&entity.ChallengeProgress{}).
			Where("id = ? AND is_completed = ?", progress.ID, false).
			Updates(map[string]any{
				"is_completed": true,
				"completed_at": progress.CompletedAt,
			})
		stamped = res.RowsAffected > 0
		return res.Error
	})
	return stamped, err
}

func (r *challengeRepository) ListProgress(ctx context.Context, challengeID uuid.UUID) ([]entity.ChallengeProgress, error) {
	var progress []entity.ChallengeProgress
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("current_count desc, id asc").
		Find(&progress).Error
	return progress, err
}

func (r *challengeRepository) ListProgressByGroup(ctx context.Context, groupID uuid.UUID) ([]entity.ChallengeProgress, error) {
	var progress []entity.ChallengeProgress
	err := r.db.WithContext(ctx).
		Preload("Challenge").
		Joins("JOIN challenges ON challenges.id = challenge_progresses.challenge_id").
		Where("challenges.group_id = ?", groupID).
		Order("challenge_progresses.id asc").
		Find(&progress).Error
	return progress, err
}

func (r *challengeRepository) CountCompleted(ctx context.Context, challengeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ChallengeProgress{}).
		Where("challenge_id = ? AND is_completed = ?", challengeID, true).
		Count(&count).Error
	return count, err
}

func (r *challengeRepository) CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMembership{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}
