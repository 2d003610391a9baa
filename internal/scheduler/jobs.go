package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// ChallengeDeactivator disables challenges whose end date has passed.
type ChallengeDeactivator interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

type challengeCleanup struct {
	challenges ChallengeDeactivator
	schedule   string
	log        *zap.Logger
}

// NewChallengeCleanup returns the job that retires expired challenges.
func NewChallengeCleanup(challenges ChallengeDeactivator, schedule string, log *zap.Logger) Job {
	return &challengeCleanup{challenges: challenges, schedule: schedule, log: log}
}

func (j *challengeCleanup) Name() string     { return "challenge-cleanup" }
func (j *challengeCleanup) Schedule() string { return j.schedule }

func (j *challengeCleanup) Run(ctx context.Context) error {
	n, err := j.challenges.DeactivateExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 && j.log != nil {
		j.log.Info("expired challenges deactivated", zap.Int64("count", n))
	}
	return nil
}
