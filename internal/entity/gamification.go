package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity kinds tracked by streaks.
const (
	ActivityPost     = "post"
	ActivityEvent    = "event"
	ActivityComment  = "comment"
	ActivityReaction = "reaction"
	ActivityLogin    = "login"
)

type Streak struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_streak_key,priority:1" json:"user_id"`
	User          User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	GroupID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_streak_key,priority:2" json:"group_id"`
	Group         Group     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StreakType    string    `gorm:"size:20;not null;uniqueIndex:idx_streak_key,priority:3" json:"streak_type"`
	CurrentStreak int       `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak int       `gorm:"not null;default:0" json:"longest_streak"`
	LastActivity  time.Time `gorm:"not null" json:"last_activity"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
}

const (
	ChallengeDaily   = "daily"
	ChallengeWeekly  = "weekly"
	ChallengeMonthly = "monthly"
	ChallengeSpecial = "special"
)

// Challenge categories. Activities advance only the challenges of their category.
const (
	CategoryPost        = "post"
	CategoryEvent       = "event"
	CategoryInteraction = "interaction"
	CategoryMedia       = "media"
	CategoryEngagement  = "engagement"
)

type Challenge struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID       uuid.UUID `gorm:"type:uuid;not null;index:idx_challenge_lookup,priority:1" json:"group_id"`
	Group         Group     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	ChallengeType string    `gorm:"size:20;not null" json:"challenge_type"`
	Category      string    `gorm:"size:20;not null;index:idx_challenge_lookup,priority:2" json:"category"`
	TargetCount   int       `gorm:"not null;default:1" json:"target_count"`
	PointsReward  int       `gorm:"not null;default:10" json:"points_reward"`
	StartDate     time.Time `gorm:"not null" json:"start_date"`
	EndDate       time.Time `gorm:"not null" json:"end_date"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedByID   uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedBy     User      `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// IsCurrent reports whether the challenge is enabled and now lies in [start, end].
func (c *Challenge) IsCurrent(now time.Time) bool {
	return c.IsActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

type ChallengeProgress struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ChallengeID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_key,priority:1" json:"challenge_id"`
	Challenge    Challenge  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_key,priority:2" json:"user_id"`
	User         User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CurrentCount int        `gorm:"not null;default:0" json:"current_count"`
	IsCompleted  bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	LastActivity time.Time  `json:"last_activity"`
}

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAllTime = "all_time"
)

type Leaderboard struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_leaderboard_key,priority:1" json:"group_id"`
	Group     Group      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Period    string     `gorm:"size:20;not null;uniqueIndex:idx_leaderboard_key,priority:2" json:"period"`
	StartDate time.Time  `gorm:"not null;uniqueIndex:idx_leaderboard_key,priority:3" json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Leaderboard) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

type LeaderboardEntry struct {
	ID                  uint        `gorm:"primaryKey" json:"id"`
	LeaderboardID       uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_entry_key,priority:1" json:"leaderboard_id"`
	Leaderboard         Leaderboard `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID              uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_entry_key,priority:2" json:"user_id"`
	Username            string      `gorm:"size:150" json:"username"`
	Points              int         `gorm:"not null;default:0" json:"points"`
	Rank                int         `gorm:"not null;default:0" json:"rank"`
	Position            int         `gorm:"not null;default:0" json:"-"` // arrival order inside the snapshot, breaks point ties
	PostsCount          int         `gorm:"not null;default:0" json:"posts_count"`
	EventsCount         int         `gorm:"not null;default:0" json:"events_count"`
	CommentsCount       int         `gorm:"not null;default:0" json:"comments_count"`
	ReactionsCount      int         `gorm:"not null;default:0" json:"reactions_count"`
	ChallengesCompleted int         `gorm:"not null;default:0" json:"challenges_completed"`
	StreaksMaintained   int         `gorm:"not null;default:0" json:"streaks_maintained"`
}

const (
	AchievementBadge     = "badge"
	AchievementMilestone = "milestone"
	AchievementRole      = "role"
	AchievementGroup     = "group"
)

type Achievement struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	Icon            string         `gorm:"size:200" json:"icon"`
	AchievementType string         `gorm:"size:20;not null;default:badge" json:"achievement_type"`
	Criteria        datatypes.JSON `json:"criteria"` // e.g. {"posts": 50} or {"streak": {"type": "post", "length": 7}}
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// UserAchievement is write-once. A nil GroupID marks an individual award.
// GroupKey mirrors GroupID (uuid.Nil for individual awards) so the unique index
// also covers individual awards, NULLs never collide in a unique index.
type UserAchievement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_key,priority:1" json:"user_id"`
	User          User        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AchievementID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement_key,priority:2" json:"achievement_id"`
	Achievement   Achievement `gorm:"constraint:OnDelete:CASCADE" json:"achievement"`
	GroupID       *uuid.UUID  `gorm:"type:uuid;index" json:"group_id,omitempty"`
	GroupKey      string      `gorm:"size:36;not null;uniqueIndex:idx_user_achievement_key,priority:3" json:"-"`
	IsGroup       bool        `gorm:"not null;default:false" json:"is_group"`
	AwardedAt     time.Time   `gorm:"autoCreateTime" json:"awarded_at"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	ua.GroupKey = GroupKey(ua.GroupID)
	ua.IsGroup = ua.GroupID != nil
	return nil
}

// GroupKey is the value stored in UserAchievement.GroupKey for a nullable group.
func GroupKey(groupID *uuid.UUID) string {
	if groupID == nil {
		return uuid.Nil.String()
	}
	return groupID.String()
}
