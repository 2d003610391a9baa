package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"bonded.app/memories/internal/entity"
	challengeRepo "bonded.app/memories/internal/modules/challenge/repository"
	challengeService "bonded.app/memories/internal/modules/challenge/service"
	"bonded.app/memories/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule string
	runs     int
	err      error
	deadline bool
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	_, j.deadline = ctx.Deadline()
	return j.err
}

func TestRegisterAndRunByName(t *testing.T) {
	s := New(nil, time.Minute)
	hourly := &stubJob{name: "hourly", schedule: "@hourly"}
	manual := &stubJob{name: "manual", err: errors.New("nope")}

	require.NoError(t, s.Register(hourly))
	require.NoError(t, s.Register(manual))
	assert.Equal(t, []string{"hourly", "manual"}, s.Jobs())

	require.NoError(t, s.RunByName(context.Background(), "hourly"))
	assert.Equal(t, 1, hourly.runs)
	assert.True(t, hourly.deadline)

	assert.EqualError(t, s.RunByName(context.Background(), "manual"), "nope")
	assert.Error(t, s.RunByName(context.Background(), "missing"))
}

func TestRegister_InvalidSchedule(t *testing.T) {
	s := New(nil, 0)
	err := s.Register(&stubJob{name: "broken", schedule: "every tuesday"})
	assert.ErrorContains(t, err, "broken")
	assert.Empty(t, s.Jobs())
}

func TestStartStop(t *testing.T) {
	s := New(nil, 0)
	require.NoError(t, s.Register(&stubJob{name: "hourly", schedule: "@hourly"}))
	s.Start()
	s.Stop()
}

func TestChallengeCleanup(t *testing.T) {
	db := testutil.NewDB(t)
	group := testutil.CreateGroup(t, db, "crew")
	user := testutil.Member(t, db, group, "devon")
	now := time.Now().UTC()
	expired := testutil.CreateChallenge(t, db, group, user, entity.CategoryPost, 1, now.Add(-72*time.Hour), now.Add(-time.Hour))
	running := testutil.CreateChallenge(t, db, group, user, entity.CategoryPost, 1, now.Add(-time.Hour), now.Add(time.Hour))

	svc := challengeService.NewChallengeService(challengeRepo.NewChallengeRepository(db), nil, nil, nil)
	s := New(nil, time.Minute)
	require.NoError(t, s.Register(NewChallengeCleanup(svc, "@hourly", nil)))
	require.NoError(t, s.RunByName(context.Background(), "challenge-cleanup"))

	var exp, run entity.Challenge
	require.NoError(t, db.First(&exp, "id = ?", expired.ID).Error)
	assert.False(t, exp.IsActive)
	require.NoError(t, db.First(&run, "id = ?", running.ID).Error)
	assert.True(t, run.IsActive)
}
