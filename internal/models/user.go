package models

import (
	"regexp"
	"time"
)

// Role is the authorization role carried on a user and in their JWT
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may moderate content
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleModerator
}

// DeletedUserName is shown in place of a soft-deleted author's pseudonym
const DeletedUserName = "Deleted user"

var deletedPseudonym = regexp.MustCompile(`^deleted-[A-Za-z0-9]+$`)

// User represents a Mask account
type User struct {
	ID        string  `gorm:"primaryKey;size:36" json:"id"`
	Pseudonym string  `gorm:"uniqueIndex;size:64;not null" json:"pseudonym"`
	Email     *string `gorm:"uniqueIndex;size:255" json:"email,omitempty"`

	PasswordHash string `gorm:"type:text;not null" json:"-"`

	AvatarURL string `json:"avatar_url"`
	Bio       string `gorm:"type:text" json:"bio"`
	Role      Role   `gorm:"size:16;default:user;not null" json:"role"`

	FollowersCount int `gorm:"default:0" json:"followers_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`

	// Disabled accounts cannot log in; their content stays visible
	Disabled bool `gorm:"default:false;index" json:"disabled"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the account was soft-deleted. Older deletion
// paths only rewrote the pseudonym, so a deleted-xxxx pseudonym counts too.
func (u *User) IsDeleted() bool {
	if u == nil {
		return true
	}
	return u.DeletedAt != nil || deletedPseudonym.MatchString(u.Pseudonym)
}

// DisplayName returns the name to render for this author
func (u *User) DisplayName() string {
	if u.IsDeleted() {
		return DeletedUserName
	}
	return u.Pseudonym
}

// PublicUser is the author projection embedded in posts, comments and lists
type PublicUser struct {
	ID         string `json:"id"`
	Pseudonym  string `json:"pseudonym"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	Role       Role   `json:"role,omitempty"`
	Deleted    bool   `json:"deleted"`
}

// Public projects the user for display. Deleted users keep their ID but lose
// their name, avatar and profile link.
func (u *User) Public() PublicUser {
	if u == nil {
		return PublicUser{Pseudonym: DeletedUserName, Deleted: true}
	}
	if u.IsDeleted() {
		return PublicUser{ID: u.ID, Pseudonym: DeletedUserName, Deleted: true}
	}
	return PublicUser{
		ID:         u.ID,
		Pseudonym:  u.Pseudonym,
		AvatarURL:  u.AvatarURL,
		ProfileURL: "/users/" + u.ID,
		Role:       u.Role,
	}
}
