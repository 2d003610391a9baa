package service

import (
	"fmt"
	"sort"
	"time"

	"bonded.app/memories/internal/entity"
	"bonded.app/memories/pkg/apperror"
)

// AllTimeLookback is how far back the all_time period reaches.
const AllTimeLookback = 10 * 365 * 24 * time.Hour

// Point weights per activity.
const (
	PointsPerPost      = 5
	PointsPerEvent     = 10
	PointsPerComment   = 2
	PointsPerReaction  = 1
	PointsPerChallenge = 20
	PointsPerStreakDay = 15
)

// Counts are the raw activity totals of one member over a period.
type Counts struct {
	Posts               int
	Events              int
	Comments            int
	Reactions           int
	ChallengesCompleted int
	StreakDays          int
}

func Points(c Counts) int {
	return c.Posts*PointsPerPost +
		c.Events*PointsPerEvent +
		c.Comments*PointsPerComment +
		c.Reactions*PointsPerReaction +
		c.ChallengesCompleted*PointsPerChallenge +
		c.StreakDays*PointsPerStreakDay
}

func ValidPeriod(period string) bool {
	switch period {
	case entity.PeriodDaily, entity.PeriodWeekly, entity.PeriodMonthly, entity.PeriodAllTime:
		return true
	}
	return false
}

// PeriodStart returns the earliest activity timestamp counted for period:
// the start of the current UTC day for daily, a rolling 7 or 30 days for
// weekly and monthly.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	now = now.UTC()
	switch period {
	case entity.PeriodDaily:
		return truncateDay(now), nil
	case entity.PeriodWeekly:
		return now.AddDate(0, 0, -7), nil
	case entity.PeriodMonthly:
		return now.AddDate(0, 0, -30), nil
	case entity.PeriodAllTime:
		return now.Add(-AllTimeLookback), nil
	}
	return time.Time{}, fmt.Errorf("unknown period %q: %w", period, apperror.ErrInvalidInput)
}

// SnapshotStart is the start date a snapshot is keyed by. Runs on the same
// UTC day share one snapshot.
func SnapshotStart(periodStart time.Time) time.Time {
	return truncateDay(periodStart.UTC())
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RankEntries orders entries by points desc, arrival position asc, and
// assigns ranks 1..N in that order.
func RankEntries(entries []entity.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Position < entries[j].Position
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
