package dto

import (
	"bonded.app/memories/internal/entity"
	"github.com/google/uuid"
)

type StreakResponse struct {
	UserID        uuid.UUID `json:"user_id"`
	StreakType    string    `json:"streak_type"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	LastActivity  string    `json:"last_activity"` // YYYY-MM-DD
	IsActive      bool      `json:"is_active"`
}

func NewStreakResponse(s entity.Streak) StreakResponse {
	return StreakResponse{
		UserID:        s.UserID,
		StreakType:    s.StreakType,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		LastActivity:  s.LastActivity.UTC().Format("2006-01-02"),
		IsActive:      s.IsActive,
	}
}
