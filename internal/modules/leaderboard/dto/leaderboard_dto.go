package dto

import (
	"time"

	"bonded.app/memories/internal/entity"
	"github.com/google/uuid"
)

// LeaderboardEntry is one ranked member of a snapshot. Rank is 1-based.
type LeaderboardEntry struct {
	UserID              uuid.UUID `json:"user_id"`
	Username            string    `json:"username"`
	Rank                int       `json:"rank"`
	Points              int       `json:"points"`
	PostsCount          int       `json:"posts_count"`
	EventsCount         int       `json:"events_count"`
	CommentsCount       int       `json:"comments_count"`
	ReactionsCount      int       `json:"reactions_count"`
	ChallengesCompleted int       `json:"challenges_completed"`
	StreaksMaintained   int       `json:"streaks_maintained"`
}

type LeaderboardResponse struct {
	ID        uuid.UUID          `json:"id"`
	GroupID   uuid.UUID          `json:"group_id"`
	Period    string             `json:"period"`
	StartDate time.Time          `json:"start_date"`
	UpdatedAt time.Time          `json:"updated_at"`
	Entries   []LeaderboardEntry `json:"entries"`
}

type CalculateRequest struct {
	Period string `json:"period" binding:"omitempty,oneof=daily weekly monthly all_time"`
}

func NewLeaderboardEntry(e entity.LeaderboardEntry) LeaderboardEntry {
	return LeaderboardEntry{
		UserID:              e.UserID,
		Username:            e.Username,
		Rank:                e.Rank,
		Points:              e.Points,
		PostsCount:          e.PostsCount,
		EventsCount:         e.EventsCount,
		CommentsCount:       e.CommentsCount,
		ReactionsCount:      e.ReactionsCount,
		ChallengesCompleted: e.ChallengesCompleted,
		StreaksMaintained:   e.StreaksMaintained,
	}
}

func NewLeaderboardResponse(l *entity.Leaderboard, entries []entity.LeaderboardEntry) *LeaderboardResponse {
	resp := &LeaderboardResponse{
		ID:        l.ID,
		GroupID:   l.GroupID,
		Period:    l.Period,
		StartDate: l.StartDate,
		UpdatedAt: l.UpdatedAt,
		Entries:   make([]LeaderboardEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, NewLeaderboardEntry(e))
	}
	return resp
}
