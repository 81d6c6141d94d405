package api

import "time"

// Auth

type RegisterRequest struct {
	Pseudonym string `json:"pseudonym"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Users

type User struct {
	ID             string     `json:"id"`
	Pseudonym      string     `json:"pseudonym"`
	Email          string     `json:"email,omitempty"`
	AvatarURL      string     `json:"avatar_url"`
	Bio            string     `json:"bio"`
	Role           string     `json:"role"`
	FollowersCount int        `json:"followers_count"`
	FollowingCount int        `json:"following_count"`
	Disabled       bool       `json:"disabled"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

type PublicUser struct {
	ID        string `json:"id"`
	Pseudonym string `json:"pseudonym"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role,omitempty"`
	Deleted   bool   `json:"deleted"`
}

// Posts

type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type FactCheckPill struct {
	Verdict     string   `json:"verdict"`
	Explanation string   `json:"explanation"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

type Post struct {
	ID                  string         `json:"id"`
	Type                string         `json:"type"`
	Scope               string         `json:"scope"`
	Author              PublicUser     `json:"author"`
	Text                string         `json:"text"`
	ImageURL            string         `json:"image_url,omitempty"`
	Group               *Ref           `json:"group,omitempty"`
	Page                *Ref           `json:"page,omitempty"`
	Original            *Post          `json:"original,omitempty"`
	OriginalUnavailable bool           `json:"original_unavailable,omitempty"`
	Reactions           map[string]int `json:"reactions"`
	ReactionCount       int            `json:"reaction_count"`
	CommentCount        int            `json:"comment_count"`
	ShareCount          int            `json:"share_count"`
	MyReaction          string         `json:"my_reaction,omitempty"`
	Bookmarked          bool           `json:"bookmarked"`
	FactCheck           *FactCheckPill `json:"fact_check,omitempty"`
	ExpiresAt           *time.Time     `json:"expires_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

type CreatePostRequest struct {
	Text      string `json:"text"`
	ImageURL  string `json:"image_url,omitempty"`
	Scope     string `json:"scope,omitempty"`
	GroupID   string `json:"group_id,omitempty"`
	PageID    string `json:"page_id,omitempty"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

type ReshareRequest struct {
	Text    string `json:"text,omitempty"`
	Scope   string `json:"scope,omitempty"`
	GroupID string `json:"group_id,omitempty"`
	PageID  string `json:"page_id,omitempty"`
}

type PostPage struct {
	Posts   []Post `json:"posts"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	HasMore bool   `json:"has_more"`
}

type FeedMeta struct {
	Tab     string `json:"tab"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	Count   int    `json:"count"`
	HasMore bool   `json:"has_more"`
}

type FeedPage struct {
	Posts []Post   `json:"posts"`
	Meta  FeedMeta `json:"meta"`
}

// ReactionTypes lists the reactions the server accepts, in display order
var ReactionTypes = []string{"like", "love", "care", "haha", "wow", "sad", "angry"}

type ReactionSummary struct {
	PostID     string         `json:"post_id"`
	Reactions  map[string]int `json:"reactions"`
	Total      int            `json:"total"`
	MyReaction string         `json:"my_reaction,omitempty"`
	Outcome    string         `json:"outcome,omitempty"`
}

type Comment struct {
	ID        string     `json:"id"`
	PostID    string     `json:"post_id"`
	Author    PublicUser `json:"author"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
}

type CommentPage struct {
	Comments []Comment `json:"comments"`
	HasMore  bool      `json:"has_more"`
}

type BookmarkState struct {
	PostID     string `json:"post_id"`
	Bookmarked bool   `json:"bookmarked"`
}

type FactCheck struct {
	PostID      string    `json:"post_id"`
	Status      string    `json:"status"`
	Verdict     string    `json:"verdict,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
	Confidence  *float64  `json:"confidence,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Notifications

type Notification struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	ActorID    string      `json:"actor_id,omitempty"`
	Actor      *PublicUser `json:"actor,omitempty"`
	EntityType string      `json:"entity_type,omitempty"`
	EntityID   string      `json:"entity_id,omitempty"`
	Message    string      `json:"message"`
	Read       bool        `json:"read"`
	CreatedAt  time.Time   `json:"created_at"`
}

type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
	HasMore       bool           `json:"has_more"`
}

// Messages

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	RecipientID    string     `json:"recipient_id"`
	Text           string     `json:"text"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Conversation struct {
	ID            string     `json:"id"`
	With          PublicUser `json:"with"`
	LastMessage   *Message   `json:"last_message,omitempty"`
	UnreadCount   int64      `json:"unread_count"`
	LastMessageAt time.Time  `json:"last_message_at"`
}

type MessageHistory struct {
	ConversationID string    `json:"conversation_id,omitempty"`
	Messages       []Message `json:"messages"`
	HasMore        bool      `json:"has_more"`
}

// Search

type SearchResults struct {
	Query  string       `json:"query"`
	Users  []PublicUser `json:"users,omitempty"`
	Posts  []Post       `json:"posts,omitempty"`
	Groups []Ref        `json:"groups,omitempty"`
	Pages  []Ref        `json:"pages,omitempty"`
}

// Admin

type Report struct {
	ID         string     `json:"id"`
	ReporterID string     `json:"reporter_id"`
	TargetType string     `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Reason     string     `json:"reason"`
	Note       string     `json:"note"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ReportRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
	Note       string `json:"note,omitempty"`
}

type ReportList struct {
	Reports []Report `json:"reports"`
	HasMore bool     `json:"has_more"`
}

type UserList struct {
	Users   []User `json:"users"`
	Total   int64  `json:"total"`
	HasMore bool   `json:"has_more"`
}

type Quote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	Users       int64 `json:"users"`
	Posts       int64 `json:"posts"`
	OpenReports int64 `json:"open_reports"`
	Groups      int64 `json:"groups"`
	Pages       int64 `json:"pages"`
}

type UploadResult struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
