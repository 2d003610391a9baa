package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateChallengeRequest struct {
	Title         string    `json:"title" binding:"required,max=200"`
	Description   string    `json:"description"`
	ChallengeType string    `json:"challenge_type" binding:"required,oneof=daily weekly monthly special"`
	Category      string    `json:"category" binding:"required,oneof=post event interaction media engagement"`
	TargetCount   int       `json:"target_count" binding:"required,min=1"`
	PointsReward  *int      `json:"points_reward" binding:"omitempty,min=0"`
	StartDate     time.Time `json:"start_date" binding:"required"`
	EndDate       time.Time `json:"end_date" binding:"required,gtfield=StartDate"`
}

// AdvanceRequest carries the progress increment. Delta is a pointer so that an
// explicit 0 reaches the service and is rejected there.
type AdvanceRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

type ChallengeResponse struct {
	ID              uuid.UUID `json:"id"`
	GroupID         uuid.UUID `json:"group_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ChallengeType   string    `json:"challenge_type"`
	Category        string    `json:"category"`
	TargetCount     int       `json:"target_count"`
	PointsReward    int       `json:"points_reward"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	IsActive        bool      `json:"is_active"`
	IsCurrent       bool      `json:"is_current"`
	DaysRemaining   int       `json:"days_remaining"`
	CreatorUsername string    `json:"creator_username"`
	ProgressCount   int64     `json:"progress_count"`  // members who completed it
	CompletionRate  float64   `json:"completion_rate"` // percent of group members
	CreatedAt       time.Time `json:"created_at"`
}

type ProgressResponse struct {
	ChallengeID        uuid.UUID  `json:"challenge_id"`
	ChallengeTitle     string     `json:"challenge_title"`
	UserID             uuid.UUID  `json:"user_id"`
	Username           string     `json:"user_username"`
	CurrentCount       int        `json:"current_count"`
	TargetCount        int        `json:"target_count"`
	IsCompleted        bool       `json:"is_completed"`
	CompletedAt        *time.Time `json:"completed_at"`
	LastActivity       time.Time  `json:"last_activity"`
	ProgressPercentage float64    `json:"progress_percentage"`
}
