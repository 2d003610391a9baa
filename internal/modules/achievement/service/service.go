package service

import (
	"context"
	"fmt"

	"bonded.app/memories/internal/entity"
	achievementDto "bonded.app/memories/internal/modules/achievement/dto"
	achievementRepo "bonded.app/memories/internal/modules/achievement/repository"
	"bonded.app/memories/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Notifier receives unlock notifications.
type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type AchievementService interface {
	// Evaluate grants every active achievement the user now qualifies for and
	// returns the ones granted by this call. A nil group evaluates global counts
	// and records individual awards.
	Evaluate(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]entity.Achievement, error)
	ListGrants(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]achievementDto.GrantResponse, error)
	Catalog(ctx context.Context) ([]achievementDto.AchievementResponse, error)
	SeedDefaults(ctx context.Context) (int64, error)
}

type achievementService struct {
	repo     achievementRepo.AchievementRepository
	counter  achievementRepo.ActivityCounter
	notifier Notifier
	log      *zap.Logger
}

func NewAchievementService(repo achievementRepo.AchievementRepository, counter achievementRepo.ActivityCounter, notifier Notifier, log *zap.Logger) AchievementService {
	return &achievementService{
		repo:     repo,
		counter:  counter,
		notifier: notifier,
		log:      logger.OrNop(log),
	}
}

func (s *achievementService) Evaluate(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]entity.Achievement, error) {
	achievements, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	granted, err := s.repo.GrantedIDs(ctx, userID, groupID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}

	counts := &lazyCounts{counter: s.counter, userID: userID, groupID: groupID}
	var unlocked []entity.Achievement
	for _, a := range achievements {
		if granted[a.ID] {
			continue
		}

		criteria, err := ParseCriteria(a.Criteria)
		if err != nil {
			s.log.Warn("skipping achievement with malformed criteria",
				zap.String("achievement", a.Name), zap.Error(err))
			continue
		}

		ok, err := counts.satisfies(ctx, criteria)
		if err != nil {
			return unlocked, fmt.Errorf("evaluate %q: %w", a.Name, err)
		}
		if !ok {
			continue
		}

		inserted, err := s.repo.Grant(ctx, &entity.UserAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			GroupID:       groupID,
		})
		if err != nil {
			return unlocked, fmt.Errorf("grant %q: %w", a.Name, err)
		}
		if !inserted {
			// A concurrent evaluation got there first.
			continue
		}
		unlocked = append(unlocked, a)
		s.notify(ctx, userID, groupID, a)
	}
	return unlocked, nil
}

func (s *achievementService) notify(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID, a entity.Achievement) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.CreateNotification(ctx, &entity.Notification{
		UserID:     userID,
		GroupID:    groupID,
		EntityID:   a.ID,
		EntityType: "achievement",
		Type:       entity.NotificationAchievementUnlocked,
		Message:    fmt.Sprintf("You unlocked the %q achievement!", a.Name),
	})
	if err != nil {
		s.log.Error("failed to send achievement notification",
			zap.String("user_id", userID.String()), zap.String("achievement", a.Name), zap.Error(err))
	}
}

func (s *achievementService) ListGrants(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]achievementDto.GrantResponse, error) {
	grants, err := s.repo.ListGrants(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	out := make([]achievementDto.GrantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, achievementDto.NewGrantResponse(g))
	}
	return out, nil
}

func (s *achievementService) Catalog(ctx context.Context) ([]achievementDto.AchievementResponse, error) {
	achievements, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]achievementDto.AchievementResponse, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, achievementDto.NewAchievementResponse(a))
	}
	return out, nil
}

func (s *achievementService) SeedDefaults(ctx context.Context) (int64, error) {
	n, err := s.repo.CreateIfAbsent(ctx, Defaults())
	if err != nil {
		return 0, fmt.Errorf("seed achievements: %w", err)
	}
	if n > 0 {
		s.log.Info("seeded default achievements", zap.Int64("count", n))
	}
	return n, nil
}

// Defaults is the starter catalog installed on boot.
func Defaults() []entity.Achievement {
	return []entity.Achievement{
		{Name: "First Memory", Description: "Share your first post.", Icon: "camera", AchievementType: entity.AchievementBadge, Criteria: datatypes.JSON(`{"posts": 1}`)},
		{Name: "Storyteller", Description: "Share 50 posts.", Icon: "book", AchievementType: entity.AchievementMilestone, Criteria: datatypes.JSON(`{"posts": 50}`)},
		{Name: "Conversationalist", Description: "Leave 10 comments.", Icon: "chat", AchievementType: entity.AchievementBadge, Criteria: datatypes.JSON(`{"comments": 10}`)},
		{Name: "Cheerleader", Description: "React to 100 posts.", Icon: "heart", AchievementType: entity.AchievementBadge, Criteria: datatypes.JSON(`{"reactions": 100}`)},
		{Name: "Party Planner", Description: "Organise 5 events.", Icon: "calendar", AchievementType: entity.AchievementRole, Criteria: datatypes.JSON(`{"events": 5}`)},
		{Name: "On a Roll", Description: "Post 7 days in a row.", Icon: "flame", AchievementType: entity.AchievementBadge, Criteria: datatypes.JSON(`{"streak": {"type": "post", "length": 7}}`)},
		{Name: "Regular", Description: "Stay active 30 days in a row.", Icon: "star", AchievementType: entity.AchievementMilestone, Criteria: datatypes.JSON(`{"streak": {"length": 30}}`)},
	}
}

// lazyCounts memoises counts for one evaluation so each table is queried at most once.
type lazyCounts struct {
	counter achievementRepo.ActivityCounter
	userID  uuid.UUID
	groupID *uuid.UUID

	posts, comments, events, reactions *int64
}

func (l *lazyCounts) satisfies(ctx context.Context, c Criteria) (bool, error) {
	checks := []struct {
		threshold *int64
		cached    **int64
		count     func(context.Context, uuid.UUID, *uuid.UUID) (int64, error)
	}{
		{c.Posts, &l.posts, l.counter.CountPosts},
		{c.Comments, &l.comments, l.counter.CountComments},
		{c.Events, &l.events, l.counter.CountEvents},
		{c.Reactions, &l.reactions, l.counter.CountReactions},
	}
	for _, check := range checks {
		if check.threshold == nil {
			continue
		}
		if *check.cached == nil {
			n, err := check.count(ctx, l.userID, l.groupID)
			if err != nil {
				return false, err
			}
			*check.cached = &n
		}
		if **check.cached >= *check.threshold {
			return true, nil
		}
	}

	if c.Streak != nil {
		ok, err := l.counter.HasActiveStreak(ctx, l.userID, l.groupID, c.Streak.Type, c.Streak.MinLength())
		if err != nil {
			return false, fmt.Errorf("streak criterion: %w", err)
		}
		return ok, nil
	}
	return false, nil
}
