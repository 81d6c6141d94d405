package models

// PostVariant is the closed set of post shapes: Original, Reshare, Scoped.
// A reshare is always a Reshare regardless of where it was posted; an
// original post outside the global scope is Scoped.
type PostVariant interface {
	Base() *Post
	variant()
}

// Original is a global post with its own content
type Original struct {
	*Post
}

// Reshare wraps a reference to another post. Of is nil when the original has
// not been loaded or no longer exists.
type Reshare struct {
	*Post
	Of *Post
}

// Scoped is an original post confined to a group or page
type Scoped struct {
	*Post
	Scope   PostScope
	GroupID string
	PageID  string
}

func (v Original) Base() *Post { return v.Post }
func (v Reshare) Base() *Post  { return v.Post }
func (v Scoped) Base() *Post   { return v.Post }

func (Original) variant() {}
func (Reshare) variant()  {}
func (Scoped) variant()   {}

// Variant classifies the post
func (p *Post) Variant() PostVariant {
	if p.Type == PostReshare {
		return Reshare{Post: p, Of: p.OriginalPost}
	}
	switch p.Scope {
	case ScopeGroup:
		return Scoped{Post: p, Scope: ScopeGroup, GroupID: deref(p.GroupID)}
	case ScopePage:
		return Scoped{Post: p, Scope: ScopePage, PageID: deref(p.PageID)}
	}
	return Original{Post: p}
}

// RootID is the ID of the post carrying the content: the original for a
// reshare, otherwise the post itself.
func (p *Post) RootID() string {
	if p.Type == PostReshare && p.OriginalPostID != nil {
		return *p.OriginalPostID
	}
	return p.ID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
