// Package gamification fans an activity out to the streak, challenge and
// achievement engines after the activity itself has been stored.
package gamification

import (
	"context"
	"time"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/pkg/logger"
	"bonded.app/memories/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Side effect steps, also used as metric labels.
const (
	StepStreak      = "streak"
	StepChallenge   = "challenge"
	StepAchievement = "achievement"
)

type StreakRecorder interface {
	RecordActivity(ctx context.Context, userID, groupID uuid.UUID, kind string, ts time.Time) (*entity.Streak, error)
}

type ChallengeAdvancer interface {
	AdvanceForActivity(ctx context.Context, userID, groupID uuid.UUID, kind string, withMedia bool) error
}

type AchievementEvaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID, groupID *uuid.UUID) ([]entity.Achievement, error)
}

// Activity is a stored post, comment, event or reaction.
type Activity struct {
	UserID    uuid.UUID
	GroupID   uuid.UUID
	Kind      string
	At        time.Time
	WithMedia bool
}

type Tracker struct {
	streaks      StreakRecorder
	challenges   ChallengeAdvancer
	achievements AchievementEvaluator
	log          *zap.Logger
}

func NewTracker(streaks StreakRecorder, challenges ChallengeAdvancer, achievements AchievementEvaluator, log *zap.Logger) *Tracker {
	return &Tracker{
		streaks:      streaks,
		challenges:   challenges,
		achievements: achievements,
		log:          logger.OrNop(log),
	}
}

// OnActivity updates the streak, advances matching challenges and re-evaluates
// achievements, in that order. Failures are logged and never reach the caller:
// the activity is already committed.
func (t *Tracker) OnActivity(ctx context.Context, a Activity) {
	if _, err := t.streaks.RecordActivity(ctx, a.UserID, a.GroupID, a.Kind, a.At); err != nil {
		t.failed(StepStreak, a, err)
	}
	if err := t.challenges.AdvanceForActivity(ctx, a.UserID, a.GroupID, a.Kind, a.WithMedia); err != nil {
		t.failed(StepChallenge, a, err)
	}
	t.evaluate(ctx, a)
}

// RecordLogin advances the login streak and re-evaluates achievements.
// Streak errors are returned.
func (t *Tracker) RecordLogin(ctx context.Context, userID, groupID uuid.UUID, at time.Time) (*entity.Streak, error) {
	streak, err := t.streaks.RecordActivity(ctx, userID, groupID, entity.ActivityLogin, at)
	if err != nil {
		return nil, err
	}
	t.evaluate(ctx, Activity{UserID: userID, GroupID: groupID, Kind: entity.ActivityLogin, At: at})
	return streak, nil
}

func (t *Tracker) evaluate(ctx context.Context, a Activity) {
	unlocked, err := t.achievements.Evaluate(ctx, a.UserID, &a.GroupID)
	if err != nil {
		t.failed(StepAchievement, a, err)
	}
	for _, ach := range unlocked {
		t.log.Info("achievement unlocked",
			zap.String("user_id", a.UserID.String()),
			zap.String("group_id", a.GroupID.String()),
			zap.String("achievement", ach.Name),
		)
	}
}

func (t *Tracker) failed(step string, a Activity, err error) {
	metrics.SideEffectFailed(step)
	t.log.Error("gamification side effect failed",
		zap.String("step", step),
		zap.String("kind", a.Kind),
		zap.String("user_id", a.UserID.String()),
		zap.String("group_id", a.GroupID.String()),
		zap.Error(err),
	)
}
