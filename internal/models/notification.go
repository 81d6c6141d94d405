package models

import "time"

type NotificationType string

const (
	NotifyMotivation    NotificationType = "motivation"
	NotifyFriendRequest NotificationType = "friend_request"
	NotifyFriendAccept  NotificationType = "friend_accept"
	NotifyMention       NotificationType = "mention"
	NotifyComment       NotificationType = "comment"
	NotifyReaction      NotificationType = "reaction"
	NotifyReshare       NotificationType = "reshare"
	NotifyMessage       NotificationType = "message"
	NotifyFollow        NotificationType = "follow"
	NotifyGroupRequest  NotificationType = "group_request"
)

// Notification is a typed event addressed to one user
type Notification struct {
	ID         string           `gorm:"primaryKey;size:36" json:"id"`
	UserID     string           `gorm:"size:36;not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	ActorID    *string          `gorm:"size:36" json:"actor_id,omitempty"`
	Actor      *User            `gorm:"foreignKey:ActorID" json:"-"`
	Type       NotificationType `gorm:"size:32;not null;index" json:"type"`
	EntityType string           `gorm:"size:32" json:"entity_type,omitempty"`
	EntityID   string           `gorm:"size:36" json:"entity_id,omitempty"`
	Message    string           `gorm:"type:text" json:"message"`
	Read       bool             `gorm:"default:false;index" json:"read"`
	CreatedAt  time.Time        `gorm:"index:idx_notifications_user_created,priority:2" json:"created_at"`
}

// Quote is a motivational quote served through motivation notifications
type Quote struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Author    string    `gorm:"size:120" json:"author"`
	Active    bool      `gorm:"index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
