package service

import (
	"testing"
	"time"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoints(t *testing.T) {
	c := Counts{Posts: 3, Events: 1, Comments: 2, Reactions: 5, ChallengesCompleted: 1, StreakDays: 2}
	assert.Equal(t, 84, Points(c))
	assert.Zero(t, Points(Counts{}))
}

func TestRankEntries_StableOnTies(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	entries := []entity.LeaderboardEntry{
		{UserID: c, Points: 50, Position: 2},
		{UserID: b, Points: 84, Position: 1},
		{UserID: a, Points: 84, Position: 0},
	}

	for run := 0; run < 3; run++ {
		RankEntries(entries)
		require.Len(t, entries, 3)
		assert.Equal(t, a, entries[0].UserID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, b, entries[1].UserID)
		assert.Equal(t, 2, entries[1].Rank)
		assert.Equal(t, c, entries[2].UserID)
		assert.Equal(t, 3, entries[2].Rank)
	}
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{entity.PeriodDaily, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)},
		{entity.PeriodWeekly, time.Date(2024, time.June, 3, 15, 30, 0, 0, time.UTC)},
		{entity.PeriodMonthly, time.Date(2024, time.May, 11, 15, 30, 0, 0, time.UTC)},
		{entity.PeriodAllTime, now.Add(-3650 * 24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := PeriodStart(tt.period, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := PeriodStart("yearly", now)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestSnapshotStart(t *testing.T) {
	got := SnapshotStart(time.Date(2024, time.June, 3, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), got)
}
