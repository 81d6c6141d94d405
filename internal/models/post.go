package models

import "time"

// PostScope is the visibility classification of a post
type PostScope string

const (
	ScopeGlobal PostScope = "global"
	ScopeGroup  PostScope = "group"
	ScopePage   PostScope = "page"
)

func (s PostScope) Valid() bool {
	return s == ScopeGlobal || s == ScopeGroup || s == ScopePage
}

type PostType string

const (
	PostOriginal PostType = "original"
	PostReshare  PostType = "reshare"
)

// ReactionType is one of the fixed reaction kinds
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionCare  ReactionType = "care"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ReactionTypes lists every accepted reaction in display order
var ReactionTypes = []ReactionType{
	ReactionLike, ReactionLove, ReactionCare, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

func (t ReactionType) Valid() bool {
	for _, rt := range ReactionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Post is the stored row for every post variant: original, reshare, and
// group/page scoped posts.
type Post struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	AuthorID string `gorm:"size:36;not null;index" json:"author_id"`
	Author   *User  `gorm:"foreignKey:AuthorID" json:"-"`

	Text     string `gorm:"type:text" json:"text"`
	ImageURL string `json:"image_url,omitempty"`

	Scope   PostScope `gorm:"size:16;default:global;not null;index" json:"scope"`
	GroupID *string   `gorm:"size:36;index" json:"group_id,omitempty"`
	Group   *Group    `gorm:"foreignKey:GroupID" json:"-"`
	PageID  *string   `gorm:"size:36;index" json:"page_id,omitempty"`
	Page    *Page     `gorm:"foreignKey:PageID" json:"-"`

	Type           PostType `gorm:"size:16;default:original;not null" json:"type"`
	OriginalPostID *string  `gorm:"size:36;index" json:"original_post_id,omitempty"`
	OriginalPost   *Post    `gorm:"foreignKey:OriginalPostID" json:"-"`

	ReactionCount int `gorm:"default:0" json:"reaction_count"`
	CommentCount  int `gorm:"default:0" json:"comment_count"`
	ShareCount    int `gorm:"default:0" json:"share_count"`

	Reactions []Reaction `gorm:"foreignKey:PostID" json:"-"`

	// ExpiresAt marks ephemeral content removed by the expiry sweep
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether ephemeral content has passed its deadline
func (p *Post) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// Reaction is unique per (post, user)
type Reaction struct {
	PostID    string       `gorm:"primaryKey;size:36" json:"post_id"`
	UserID    string       `gorm:"primaryKey;size:36;index" json:"user_id"`
	Type      ReactionType `gorm:"size:16;not null" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;not null;index" json:"post_id"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Share records that a user reshared a post
type Share struct {
	PostID    string    `gorm:"primaryKey;size:36" json:"post_id"`
	UserID    string    `gorm:"primaryKey;size:36;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Bookmark struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"user_id"`
	PostID    string    `gorm:"primaryKey;size:36;index" json:"post_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
