package repository

import (
	"context"
	"errors"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipRepository interface {
	FindGroup(ctx context.Context, groupID uuid.UUID) (*entity.Group, error)
	FindMembership(ctx context.Context, groupID, userID uuid.UUID) (*entity.GroupMembership, error)
	// ListMembers returns memberships with their users, oldest first.
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]entity.GroupMembership, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) FindGroup(ctx context.Context, groupID uuid.UUID) (*entity.Group, error) {
	var group entity.Group
	if err := r.db.WithContext(ctx).First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *membershipRepository) FindMembership(ctx context.Context, groupID, userID uuid.UUID) (*entity.GroupMembership, error) {
	var m entity.GroupMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]entity.GroupMembership, error) {
	var members []entity.GroupMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at asc, id asc").
		Find(&members).Error
	return members, err
}
