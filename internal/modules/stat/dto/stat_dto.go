package dto

import "github.com/google/uuid"

type UserStats struct {
	UserID              uuid.UUID      `json:"user_id"`
	Username            string         `json:"user_username"`
	TotalPoints         int            `json:"total_points"`
	TotalPosts          int            `json:"total_posts"`
	TotalEvents         int            `json:"total_events"`
	TotalComments       int            `json:"total_comments"`
	TotalReactions      int            `json:"total_reactions"`
	ChallengesCompleted int            `json:"challenges_completed"`
	Achievements        int            `json:"achievements_count"`
	CurrentStreaks      map[string]int `json:"current_streaks"`
	LongestStreaks      map[string]int `json:"longest_streaks"`
	Rank                *int           `json:"rank"` // from the latest all_time snapshot, null before the first calculation
}
