package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllModels lists every table for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{}, &Follow{}, &FriendRequest{},
		&Group{}, &GroupMember{}, &Page{}, &PageFollower{}, &PageAdmin{},
		&Post{}, &Reaction{}, &Comment{}, &Share{}, &Bookmark{},
		&Notification{}, &Quote{},
		&Conversation{}, &Message{},
		&FactCheck{}, &Report{}, &TrustScore{},
	}
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (r *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	if r.Status == "" {
		r.Status = FriendRequestPending
	}
	return nil
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = generateUUID()
	}
	if g.Privacy == "" {
		g.Privacy = GroupPublic
	}
	return nil
}

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	if p.Scope == "" {
		p.Scope = ScopeGlobal
	}
	if p.Type == "" {
		p.Type = PostOriginal
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = generateUUID()
	}
	return nil
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	if r.Status == "" {
		r.Status = ReportOpen
	}
	return nil
}

func generateUUID() string {
	return uuid.New().String()
}
