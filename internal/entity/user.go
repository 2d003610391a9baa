package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

const (
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// User is the global account. Its Username is only the fallback name; inside a
// group members are shown by their GroupMembership.Username.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:100" json:"email"`
	AvatarURL *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type GroupMembership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user,priority:1;uniqueIndex:idx_membership_username,priority:1" json:"group_id"`
	Group    Group     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user,priority:2" json:"user_id"`
	User     User      `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	Username *string   `gorm:"size:150;uniqueIndex:idx_membership_username,priority:2" json:"username"` // group-specific display name, nil falls back to User.Username
	Role     string    `gorm:"size:50;default:member" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
