package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationChallengeCompleted  = "challenge_completed"
	NotificationAchievementUnlocked = "achievement_unlocked"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_notifications_user,priority:1" json:"user_id"` // receiver
	GroupID    *uuid.UUID `gorm:"type:uuid" json:"group_id,omitempty"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null" json:"entity_id"`          // challenge or achievement
	EntityType string     `gorm:"type:varchar(50);not null" json:"entity_type"` // 'challenge' or 'achievement'
	Type       string     `gorm:"type:varchar(50);not null" json:"type"`
	Message    string     `gorm:"type:text" json:"message"`
	IsRead     bool       `gorm:"default:false;index:idx_notifications_user,priority:2" json:"is_read"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
