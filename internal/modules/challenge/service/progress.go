package service

import (
	"math"
	"time"

	"bonded.app/memories/internal/entity"
)

// ApplyProgress adds delta to p and reports whether this call completed it.
// Completion is stamped once; later advances keep counting but never touch
// IsCompleted or CompletedAt again.
func ApplyProgress(p *entity.ChallengeProgress, target, delta int, now time.Time) bool {
	p.CurrentCount += delta
	p.LastActivity = now

	if p.IsCompleted || p.CurrentCount < target {
		return false
	}
	completedAt := now
	p.IsCompleted = true
	p.CompletedAt = &completedAt
	return true
}

// Percentage is count over target capped at 100, one decimal.
func Percentage(count, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := math.Round(float64(count)*1000/float64(target)) / 10
	return math.Min(100, pct)
}

// CategoriesFor maps an activity kind to the challenge categories it advances.
func CategoriesFor(kind string, withMedia bool) []string {
	switch kind {
	case entity.ActivityPost:
		if withMedia {
			return []string{entity.CategoryPost, entity.CategoryMedia}
		}
		return []string{entity.CategoryPost}
	case entity.ActivityEvent:
		return []string{entity.CategoryEvent}
	case entity.ActivityComment:
		return []string{entity.CategoryInteraction}
	case entity.ActivityReaction:
		return []string{entity.CategoryEngagement}
	}
	return nil
}

// DaysRemaining counts whole days left for a current challenge, 0 otherwise.
func DaysRemaining(c *entity.Challenge, now time.Time) int {
	if !c.IsCurrent(now) {
		return 0
	}
	return int(c.EndDate.Sub(now).Hours() / 24)
}
