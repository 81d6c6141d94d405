package models

import "time"

// Follow is a one-way follow edge
type Follow struct {
	FollowerID string    `gorm:"primaryKey;size:36" json:"follower_id"`
	FolloweeID string    `gorm:"primaryKey;size:36;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

// FriendRequest doubles as the friendship edge once accepted
type FriendRequest struct {
	ID        string              `gorm:"primaryKey;size:36" json:"id"`
	FromID    string              `gorm:"size:36;not null;uniqueIndex:idx_friend_pair" json:"from_id"`
	From      *User               `gorm:"foreignKey:FromID" json:"-"`
	ToID      string              `gorm:"size:36;not null;uniqueIndex:idx_friend_pair;index" json:"to_id"`
	To        *User               `gorm:"foreignKey:ToID" json:"-"`
	Status    FriendRequestStatus `gorm:"size:16;default:pending;index" json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Other returns the counterpart of userID in the request
func (r *FriendRequest) Other(userID string) string {
	if r.FromID == userID {
		return r.ToID
	}
	return r.FromID
}
