package models

import "time"

// Page is a followable public profile run by one or more page admins
type Page struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Name          string     `gorm:"size:120;not null;index" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	CoverURL      string     `json:"cover_url"`
	OwnerID       string     `gorm:"size:36;not null;index" json:"owner_id"`
	FollowerCount int        `gorm:"default:0" json:"follower_count"`
	Disabled      bool       `gorm:"default:false;index" json:"disabled"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (p *Page) Hidden() bool {
	return p.Disabled || p.DeletedAt != nil
}

type PageFollower struct {
	PageID    string    `gorm:"primaryKey;size:36" json:"page_id"`
	UserID    string    `gorm:"primaryKey;size:36;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type PageAdmin struct {
	PageID    string    `gorm:"primaryKey;size:36" json:"page_id"`
	UserID    string    `gorm:"primaryKey;size:36;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
