package models

import "time"

type GroupPrivacy string

const (
	GroupPublic  GroupPrivacy = "public"
	GroupPrivate GroupPrivacy = "private"
)

// Group is a membership-based community. Posts scoped to a private group
// are only visible to its members.
type Group struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	Name        string       `gorm:"size:120;not null;index" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Privacy     GroupPrivacy `gorm:"size:16;default:public;not null" json:"privacy"`
	CoverURL    string       `json:"cover_url"`
	OwnerID     string       `gorm:"size:36;not null;index" json:"owner_id"`
	MemberCount int          `gorm:"default:0" json:"member_count"`
	Disabled    bool         `gorm:"default:false;index" json:"disabled"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `gorm:"index" json:"deleted_at,omitempty"`
}

// IsPrivate reports whether the group hides its content from non-members
func (g *Group) IsPrivate() bool {
	return g.Privacy == GroupPrivate
}

// Hidden reports whether moderation removed the group from public view
func (g *Group) Hidden() bool {
	return g.Disabled || g.DeletedAt != nil
}

type GroupRole string

const (
	GroupRoleMember GroupRole = "member"
	GroupRoleAdmin  GroupRole = "admin"
)

type MembershipStatus string

const (
	MembershipActive  MembershipStatus = "active"
	MembershipPending MembershipStatus = "pending"
)

type GroupMember struct {
	GroupID   string           `gorm:"primaryKey;size:36" json:"group_id"`
	UserID    string           `gorm:"primaryKey;size:36;index" json:"user_id"`
	User      *User            `gorm:"foreignKey:UserID" json:"-"`
	Role      GroupRole        `gorm:"size:16;default:member" json:"role"`
	Status    MembershipStatus `gorm:"size:16;default:active;index" json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
