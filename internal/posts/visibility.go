package posts

import (
	"context"
	"time"

	"github.com/maskapp/mask/internal/models"
	"gorm.io/gorm"
)

// Viewer is the requesting user with the memberships visibility depends on
type Viewer struct {
	ID     string
	Role   models.Role
	Groups map[string]bool // active memberships
}

// IsStaff reports whether moderation bypasses hidden groups and pages
func (v *Viewer) IsStaff() bool {
	return v != nil && v.Role.IsStaff()
}

func (v *Viewer) MemberOf(groupID string) bool {
	return v != nil && v.Groups[groupID]
}

// LoadViewer reads the user's role and active group memberships. An empty
// userID yields an anonymous viewer.
func LoadViewer(ctx context.Context, db *gorm.DB, userID string) (*Viewer, error) {
	v := &Viewer{ID: userID, Role: models.RoleUser, Groups: map[string]bool{}}
	if userID == "" {
		return v, nil
	}
	var user models.User
	if err := db.WithContext(ctx).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	v.Role = user.Role

	var groupIDs []string
	if err := db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("user_id = ? AND status = ?", userID, models.MembershipActive).
		Pluck("group_id", &groupIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range groupIDs {
		v.Groups[id] = true
	}
	return v, nil
}

// CanSee applies the read rules to a post with Group and Page preloaded:
// global posts are public, group posts need a public group or membership,
// page posts are public, and hidden groups/pages are staff-only. Expired
// posts are never visible.
func CanSee(v *Viewer, p *models.Post, now time.Time) bool {
	if p == nil || p.Expired(now) {
		return false
	}
	switch p.Scope {
	case models.ScopeGroup:
		if p.Group == nil {
			return false
		}
		if p.Group.Hidden() {
			return v.IsStaff()
		}
		return !p.Group.IsPrivate() || v.MemberOf(p.Group.ID) || v.IsStaff()
	case models.ScopePage:
		if p.Page == nil {
			return false
		}
		return !p.Page.Hidden() || v.IsStaff()
	}
	return true
}

// VisibleScope restricts a posts query to rows the viewer may read. It
// mirrors CanSee for use in list queries.
func VisibleScope(v *Viewer, now time.Time) func(*gorm.DB) *gorm.DB {
	now = now.UTC()
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("posts.expires_at IS NULL OR posts.expires_at > ?", now)
		if v.IsStaff() {
			return db
		}

		session := db.Session(&gorm.Session{NewDB: true})
		openGroups := session.Model(&models.Group{}).Select("id").
			Where("disabled = ? AND deleted_at IS NULL", false)
		if len(v.Groups) > 0 {
			openGroups = openGroups.Where("privacy = ? OR id IN ?", models.GroupPublic, keys(v.Groups))
		} else {
			openGroups = openGroups.Where("privacy = ?", models.GroupPublic)
		}
		openPages := session.Model(&models.Page{}).Select("id").
			Where("disabled = ? AND deleted_at IS NULL", false)

		return db.Where(
			session.Where("posts.scope = ?", models.ScopeGlobal).
				Or("posts.scope = ? AND posts.group_id IN (?)", models.ScopeGroup, openGroups).
				Or("posts.scope = ? AND posts.page_id IN (?)", models.ScopePage, openPages),
		)
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
