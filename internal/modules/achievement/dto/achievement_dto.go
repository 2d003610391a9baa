package dto

import (
	"time"

	"bonded.app/memories/internal/entity"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AchievementResponse struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Icon            string         `json:"icon"`
	AchievementType string         `json:"achievement_type"`
	Criteria        datatypes.JSON `json:"criteria"`
}

type GrantResponse struct {
	Achievement AchievementResponse `json:"achievement"`
	GroupID     *uuid.UUID          `json:"group_id,omitempty"`
	IsGroup     bool                `json:"is_group"`
	AwardedAt   time.Time           `json:"awarded_at"`
}

func NewAchievementResponse(a entity.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:              a.ID,
		Name:            a.Name,
		Description:     a.Description,
		Icon:            a.Icon,
		AchievementType: a.AchievementType,
		Criteria:        a.Criteria,
	}
}

func NewGrantResponse(g entity.UserAchievement) GrantResponse {
	return GrantResponse{
		Achievement: NewAchievementResponse(g.Achievement),
		GroupID:     g.GroupID,
		IsGroup:     g.IsGroup,
		AwardedAt:   g.AwardedAt,
	}
}
