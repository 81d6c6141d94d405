package models

import "time"

// Conversation is a direct-message thread between two users.
// UserAID is always the lexically smaller ID.
type Conversation struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserAID       string    `gorm:"size:36;not null;uniqueIndex:idx_conversation_pair" json:"user_a_id"`
	UserBID       string    `gorm:"size:36;not null;uniqueIndex:idx_conversation_pair;index" json:"user_b_id"`
	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// ConversationPair orders two user IDs the way conversations store them
func ConversationPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Other returns the participant that is not userID
func (c *Conversation) Other(userID string) string {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

type Message struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string     `gorm:"size:36;not null;index:idx_messages_conv_created,priority:1" json:"conversation_id"`
	SenderID       string     `gorm:"size:36;not null" json:"sender_id"`
	RecipientID    string     `gorm:"size:36;not null;index" json:"recipient_id"`
	Text           string     `gorm:"type:text;not null" json:"text"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index:idx_messages_conv_created,priority:2" json:"created_at"`
}
