package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bonded.app/memories/internal/entity"
	activityDto "bonded.app/memories/internal/modules/activity/dto"
	activityRepo "bonded.app/memories/internal/modules/activity/repository"
	"bonded.app/memories/internal/modules/gamification"
	"bonded.app/memories/pkg/apperror"
	"bonded.app/memories/pkg/logger"
	"bonded.app/memories/pkg/sanitize"
	"bonded.app/memories/pkg/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reactionCountsTTL = 7 * 24 * time.Hour

// MemberChecker fails with ErrForbidden for users outside the group.
type MemberChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) (*entity.GroupMembership, error)
}

// ActivityTracker receives every stored activity.
type ActivityTracker interface {
	OnActivity(ctx context.Context, a gamification.Activity)
}

type ActivityService interface {
	CreatePost(ctx context.Context, userID, groupID uuid.UUID, req activityDto.CreatePostRequest, media *activityDto.MediaFile) (*activityDto.PostResponse, error)
	CreateComment(ctx context.Context, userID, postID uuid.UUID, req activityDto.CreateCommentRequest) (*entity.Comment, error)
	CreateEvent(ctx context.Context, userID, groupID uuid.UUID, req activityDto.CreateEventRequest) (*entity.Event, error)
	// React sets the user's reaction on a post. Only a first reaction counts as activity.
	React(ctx context.Context, userID, postID uuid.UUID, req activityDto.ReactRequest) (*activityDto.ReactionResponse, error)
	ReactionCounts(ctx context.Context, postID uuid.UUID) (map[string]int64, error)
}

type activityService struct {
	repo    activityRepo.ActivityRepository
	members MemberChecker
	tracker ActivityTracker
	media   storage.MediaStorage
	rdb     *redis.Client
	log     *zap.Logger
	now     func() time.Time
}

// NewActivityService wires the producers. media and rdb may be nil: uploads are
// then rejected and reaction counts are read from the database.
func NewActivityService(repo activityRepo.ActivityRepository, members MemberChecker, tracker ActivityTracker, media storage.MediaStorage, rdb *redis.Client, log *zap.Logger) ActivityService {
	return &activityService{
		repo:    repo,
		members: members,
		tracker: tracker,
		media:   media,
		rdb:     rdb,
		log:     logger.OrNop(log),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *activityService) CreatePost(ctx context.Context, userID, groupID uuid.UUID, req activityDto.CreatePostRequest, media *activityDto.MediaFile) (*activityDto.PostResponse, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	text := sanitize.UGC(req.Text)
	if text == "" && media == nil {
		return nil, fmt.Errorf("post needs text or media: %w", apperror.ErrInvalidInput)
	}

	post := &entity.Post{
		GroupID:   groupID,
		AuthorID:  userID,
		Text:      text,
		MediaType: entity.MediaTypeText,
		CreatedAt: s.now(),
	}

	if media != nil {
		if s.media == nil {
			return nil, apperror.New(http.StatusServiceUnavailable, "media uploads are not configured", nil)
		}
		if storage.KindFor(media.FileName) == "" {
			return nil, fmt.Errorf("unsupported media file %q: %w", media.FileName, apperror.ErrInvalidInput)
		}
		url, kind, err := s.media.Upload(ctx, media.Reader, media.FileName)
		if err != nil {
			return nil, err
		}
		post.MediaURL = &url
		post.MediaType = kind
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		if post.MediaURL != nil {
			if delErr := s.media.Delete(ctx, *post.MediaURL); delErr != nil {
				s.log.Warn("failed to remove orphaned media", zap.String("url", *post.MediaURL), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.tracker.OnActivity(ctx, gamification.Activity{
		UserID:    userID,
		GroupID:   groupID,
		Kind:      entity.ActivityPost,
		At:        post.CreatedAt,
		WithMedia: post.MediaURL != nil,
	})
	return activityDto.NewPostResponse(post), nil
}

// postInGroup loads the post and checks the user belongs to its group.
func (s *activityService) postInGroup(ctx context.Context, userID, postID uuid.UUID) (*entity.Post, error) {
	post, err := s.repo.FindPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.RequireMember(ctx, post.GroupID, userID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *activityService) CreateComment(ctx context.Context, userID, postID uuid.UUID, req activityDto.CreateCommentRequest) (*entity.Comment, error) {
	post, err := s.postInGroup(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	text := sanitize.UGC(req.Text)
	if text == "" {
		return nil, fmt.Errorf("comment is empty: %w", apperror.ErrInvalidInput)
	}

	comment := &entity.Comment{PostID: post.ID, UserID: userID, Text: text, CreatedAt: s.now()}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.tracker.OnActivity(ctx, gamification.Activity{
		UserID:  userID,
		GroupID: post.GroupID,
		Kind:    entity.ActivityComment,
		At:      comment.CreatedAt,
	})
	return comment, nil
}

func (s *activityService) CreateEvent(ctx context.Context, userID, groupID uuid.UUID, req activityDto.CreateEventRequest) (*entity.Event, error) {
	if _, err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	title := sanitize.Plain(req.Title)
	if title == "" {
		return nil, fmt.Errorf("event title is empty: %w", apperror.ErrInvalidInput)
	}

	event := &entity.Event{
		GroupID:     groupID,
		CreatorID:   userID,
		Title:       title,
		Description: sanitize.UGC(req.Description),
		Type:        sanitize.Plain(req.Type),
		StartTime:   req.StartTime.UTC(),
		CreatedAt:   s.now(),
	}
	if req.EndTime != nil {
		end := req.EndTime.UTC()
		event.EndTime = &end
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.tracker.OnActivity(ctx, gamification.Activity{
		UserID:  userID,
		GroupID: groupID,
		Kind:    entity.ActivityEvent,
		At:      event.CreatedAt,
	})
	return event, nil
}

func (s *activityService) React(ctx context.Context, userID, postID uuid.UUID, req activityDto.ReactRequest) (*activityDto.ReactionResponse, error) {
	post, err := s.postInGroup(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	reaction := &entity.Reaction{PostID: post.ID, UserID: userID, Type: req.Type, Emoji: req.Emoji, CreatedAt: s.now()}
	created, previous, err := s.repo.SaveReaction(ctx, reaction)
	if err != nil {
		return nil, fmt.Errorf("save reaction: %w", err)
	}
	s.bumpCounts(ctx, post.ID, previous, reaction.Type)

	if created {
		s.tracker.OnActivity(ctx, gamification.Activity{
			UserID:  userID,
			GroupID: post.GroupID,
			Kind:    entity.ActivityReaction,
			At:      reaction.CreatedAt,
		})
	}

	counts, err := s.ReactionCounts(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &activityDto.ReactionResponse{
		PostID:  post.ID,
		Type:    reaction.Type,
		Emoji:   reaction.Emoji,
		Created: created,
		Counts:  counts,
	}, nil
}

func countsKey(postID uuid.UUID) string {
	return fmt.Sprintf("counts:post:%s", postID.String())
}

// bumpCounts moves one reaction from the previous type to the new one in the
// cached counts. A missing hash is left for ReactionCounts to rebuild.
func (s *activityService) bumpCounts(ctx context.Context, postID uuid.UUID, previous, current string) {
	if s.rdb == nil || previous == current {
		return
	}
	key := countsKey(postID)
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}

	pipe := s.rdb.Pipeline()
	if previous != "" {
		pipe.HIncrBy(ctx, key, previous, -1)
	}
	pipe.HIncrBy(ctx, key, current, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn("redis reaction count update failed", zap.Error(err))
		s.rdb.Del(ctx, key)
	}
}

func (s *activityService) ReactionCounts(ctx context.Context, postID uuid.UUID) (map[string]int64, error) {
	if s.rdb != nil {
		val, err := s.rdb.HGetAll(ctx, countsKey(postID)).Result()
		if err == nil && len(val) > 0 {
			counts := make(map[string]int64, len(val))
			for typ, raw := range val {
				n, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					continue
				}
				if n > 0 {
					counts[typ] = n
				}
			}
			return counts, nil
		} else if err != nil && !errors.Is(err, redis.Nil) {
			s.log.Warn("redis reaction count read failed", zap.Error(err))
		}
	}

	counts, err := s.repo.ReactionCounts(ctx, postID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil && len(counts) > 0 {
		key := countsKey(postID)
		pipe := s.rdb.Pipeline()
		pipe.Del(ctx, key)
		for typ, n := range counts {
			pipe.HSet(ctx, key, typ, n)
		}
		pipe.Expire(ctx, key, reactionCountsTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			s.log.Warn("redis reaction count rebuild failed", zap.Error(err))
		}
	}
	return counts, nil
}
