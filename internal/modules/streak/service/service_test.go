package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"bonded.app/memories/internal/entity"
	streakRepo "bonded.app/memories/internal/modules/streak/repository"
	"bonded.app/memories/internal/testutil"
	"bonded.app/memories/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	start := testutil.Day(2024, time.March, 10)

	t.Run("same day is a no-op", func(t *testing.T) {
		s := &entity.Streak{CurrentStreak: 3, LongestStreak: 5, LastActivity: start}
		changed := Advance(s, start.Add(20*time.Hour))
		assert.False(t, changed)
		assert.Equal(t, 3, s.CurrentStreak)
		assert.Equal(t, 5, s.LongestStreak)
		assert.Equal(t, start, s.LastActivity)
	})

	t.Run("next day extends and raises longest", func(t *testing.T) {
		s := &entity.Streak{CurrentStreak: 5, LongestStreak: 5, LastActivity: start}
		assert.True(t, Advance(s, start.AddDate(0, 0, 1).Add(3*time.Hour)))
		assert.Equal(t, 6, s.CurrentStreak)
		assert.Equal(t, 6, s.LongestStreak)
		assert.Equal(t, start.AddDate(0, 0, 1), s.LastActivity)
	})

	t.Run("two day gap resets to one", func(t *testing.T) {
		for _, current := range []int{1, 4, 30, 365} {
			s := &entity.Streak{CurrentStreak: current, LongestStreak: current, LastActivity: start}
			assert.True(t, Advance(s, start.AddDate(0, 0, 2)))
			assert.Equal(t, 1, s.CurrentStreak)
			assert.Equal(t, current, s.LongestStreak)
		}
	})

	t.Run("reset raises a zero longest", func(t *testing.T) {
		s := &entity.Streak{LastActivity: start}
		Advance(s, start.AddDate(0, 0, 5))
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 1, s.LongestStreak)
	})

	t.Run("older activity is ignored", func(t *testing.T) {
		s := &entity.Streak{CurrentStreak: 2, LongestStreak: 2, LastActivity: start}
		assert.False(t, Advance(s, start.AddDate(0, 0, -3)))
		assert.Equal(t, 2, s.CurrentStreak)
		assert.Equal(t, start, s.LastActivity)
	})

	t.Run("day boundary is UTC", func(t *testing.T) {
		late := time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC)
		s := &entity.Streak{CurrentStreak: 1, LongestStreak: 1, LastActivity: DateOf(late)}
		assert.True(t, Advance(s, late.Add(time.Hour)))
		assert.Equal(t, 2, s.CurrentStreak)
	})
}

func TestAdvance_LongestNeverBelowCurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := &entity.Streak{CurrentStreak: 1, LongestStreak: 1, LastActivity: testutil.Day(2024, time.January, 1)}
	day := s.LastActivity
	prevLongest := s.LongestStreak

	for i := 0; i < 500; i++ {
		day = day.AddDate(0, 0, rng.Intn(4)-1)
		Advance(s, day)
		require.GreaterOrEqual(t, s.LongestStreak, s.CurrentStreak)
		require.GreaterOrEqual(t, s.LongestStreak, prevLongest)
		prevLongest = s.LongestStreak
	}
}

func TestRecordActivity(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStreakService(streakRepo.NewStreakRepository(db))
	ctx := context.Background()

	group := testutil.CreateGroup(t, db, "friends")
	user := testutil.Member(t, db, group, "riley")
	day := testutil.Day(2024, time.May, 1).Add(9 * time.Hour)

	s, err := svc.RecordActivity(ctx, user.ID, group.ID, entity.ActivityPost, day)
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)

	// second post the same day
	s, err = svc.RecordActivity(ctx, user.ID, group.ID, entity.ActivityPost, day.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)

	for i := 1; i <= 3; i++ {
		s, err = svc.RecordActivity(ctx, user.ID, group.ID, entity.ActivityPost, day.AddDate(0, 0, i))
		require.NoError(t, err)
	}
	assert.Equal(t, 4, s.CurrentStreak)
	assert.Equal(t, 4, s.LongestStreak)

	s, err = svc.RecordActivity(ctx, user.ID, group.ID, entity.ActivityPost, day.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 4, s.LongestStreak)

	stored, err := svc.GetForUser(ctx, user.ID, group.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].CurrentStreak)
	assert.Equal(t, 4, stored[0].LongestStreak)
	assert.True(t, stored[0].LastActivity.Equal(testutil.Day(2024, time.May, 7)))
}

func TestRecordActivity_KindsAreSeparate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStreakService(streakRepo.NewStreakRepository(db))
	ctx := context.Background()

	group := testutil.CreateGroup(t, db, "friends")
	user := testutil.Member(t, db, group, "riley")
	other := testutil.Member(t, db, group, "quinn")
	day := testutil.Day(2024, time.May, 1)

	_, err := svc.RecordActivity(ctx, user.ID, group.ID, entity.ActivityPost, day)
	require.NoError(t, err)
	_, err = svc.RecordActivity(ctx, user.ID, group.ID, entity.ActivityComment, day)
	require.NoError(t, err)
	_, err = svc.RecordActivity(ctx, other.ID, group.ID, entity.ActivityLogin, day)
	require.NoError(t, err)

	all, err := svc.ListByGroup(ctx, group.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.ListByGroup(ctx, group.ID, &user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestRecordActivity_UnknownKind(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewStreakService(streakRepo.NewStreakRepository(db))

	_, err := svc.RecordActivity(context.Background(), testutil.CreateUser(t, db, "a").ID, testutil.CreateGroup(t, db, "g").ID, "poll", time.Now())
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}
