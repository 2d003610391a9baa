package repository

import (
	"context"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository interface {
	CreatePost(ctx context.Context, post *entity.Post) error
	FindPost(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	CreateComment(ctx context.Context, comment *entity.Comment) error
	CreateEvent(ctx context.Context, event *entity.Event) error
	// SaveReaction inserts the user's reaction on a post or, when one exists, replaces
	// its type. created reports an insert; previous holds the replaced type.
	SaveReaction(ctx context.Context, reaction *entity.Reaction) (created bool, previous string, err error)
	ReactionCounts(ctx context.Context, postID uuid.UUID) (map[string]int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) CreatePost(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *activityRepository) FindPost(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, apperror.NotFound(err)
	}
	return &post, nil
}

func (r *activityRepository) CreateComment(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *activityRepository) CreateEvent(ctx context.Context, event *entity.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *activityRepository) SaveReaction(ctx context.Context, reaction *entity.Reaction) (bool, string, error) {
	var (
		created  bool
		previous string
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(reaction)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			created = true
			return nil
		}

		var existing entity.Reaction
		if err := tx.Where("post_id = ? AND user_id = ?", reaction.PostID, reaction.UserID).First(&existing).Error; err != nil {
			return err
		}
		previous = existing.Type
		if err := tx.Model(&existing).Updates(map[string]any{"type": reaction.Type, "emoji": reaction.Emoji}).Error; err != nil {
			return err
		}
		reaction.ID = existing.ID
		reaction.CreatedAt = existing.CreatedAt
		return nil
	})
	return created, previous, err
}

func (r *activityRepository) ReactionCounts(ctx context.Context, postID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.Reaction{}).
		Select("type, COUNT(*) AS count").
		Where("post_id = ?", postID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}
