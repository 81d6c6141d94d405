// Package groups manages membership-based communities.
package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/notifications"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound       = apierrors.NotFound("group")
	ErrMemberNotFound = apierrors.NotFound("membership")
	ErrNotAdmin       = apierrors.Forbidden("group admin rights required")
	ErrMembersOnly    = apierrors.Forbidden("this group is private")
	ErrOwnerLeave     = apierrors.BadRequest("the owner cannot leave the group")
)

type Notifier interface {
	Emit(ctx context.Context, e notifications.Event) *models.Notification
}

// Service implements group operations
type Service struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{db: db, notifier: notifier, now: time.Now}
}

// GroupView is a group with the caller's membership attached
type GroupView struct {
	models.Group
	Membership *Membership `json:"membership,omitempty"`
}

type Membership struct {
	Role   models.GroupRole        `json:"role"`
	Status models.MembershipStatus `json:"status"`
}

// MemberView is one row of the members list
type MemberView struct {
	User     models.PublicUser       `json:"user"`
	Role     models.GroupRole        `json:"role"`
	Status   models.MembershipStatus `json:"status"`
	JoinedAt time.Time               `json:"joined_at"`
}

// CreateInput is the body of POST /api/groups
type CreateInput struct {
	Name        string              `json:"name" binding:"required,min=2,max=120"`
	Description string              `json:"description" binding:"max=2000"`
	Privacy     models.GroupPrivacy `json:"privacy" binding:"omitempty,oneof=public private"`
	CoverURL    string              `json:"cover_url" binding:"max=512"`
}

// UpdateInput is the body of PATCH /api/groups/:id
type UpdateInput struct {
	Name        *string              `json:"name" binding:"omitempty,min=2,max=120"`
	Description *string              `json:"description" binding:"omitempty,max=2000"`
	Privacy     *models.GroupPrivacy `json:"privacy" binding:"omitempty,oneof=public private"`
	CoverURL    *string              `json:"cover_url" binding:"omitempty,max=512"`
}

func (s *Service) role(ctx context.Context, userID string) models.Role {
	var u models.User
	if err := s.db.WithContext(ctx).Select("id", "role").First(&u, "id = ?", userID).Error; err != nil {
		return models.RoleUser
	}
	return u.Role
}

func (s *Service) membership(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	if userID == "" {
		return nil, nil
	}
	var m models.GroupMember
	err := s.db.WithContext(ctx).First(&m, "group_id = ? AND user_id = ?", groupID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// load returns the group unless it is hidden from this viewer
func (s *Service) load(ctx context.Context, viewerID, groupID string) (*models.Group, error) {
	var g models.Group
	err := s.db.WithContext(ctx).First(&g, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if g.Hidden() && !s.role(ctx, viewerID).IsStaff() {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (s *Service) requireAdmin(ctx context.Context, g *models.Group, userID string) error {
	m, err := s.membership(ctx, g.ID, userID)
	if err != nil {
		return err
	}
	if m != nil && m.Status == models.MembershipActive && m.Role == models.GroupRoleAdmin {
		return nil
	}
	if s.role(ctx, userID).IsStaff() {
		return nil
	}
	return ErrNotAdmin
}

func view(g *models.Group, m *models.GroupMember) *GroupView {
	v := &GroupView{Group: *g}
	if m != nil {
		v.Membership = &Membership{Role: m.Role, Status: m.Status}
	}
	return v
}

// Create makes a group owned and administered by ownerID
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*GroupView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierrors.ValidationError("name", "name is required")
	}
	privacy := in.Privacy
	if privacy == "" {
		privacy = models.GroupPublic
	}

	g := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Privacy:     privacy,
		CoverURL:    in.CoverURL,
		OwnerID:     ownerID,
		MemberCount: 1,
	}
	m := &models.GroupMember{UserID: ownerID, Role: models.GroupRoleAdmin, Status: models.MembershipActive}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		m.GroupID = g.ID
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	logger.Log.Info("Group created", zap.String("group_id", g.ID), logger.WithUserID(ownerID))
	return view(g, m), nil
}

// Get returns the group with the viewer's membership
func (s *Service) Get(ctx context.Context, viewerID, groupID string) (*GroupView, error) {
	g, err := s.load(ctx, viewerID, groupID)
	if err != nil {
		return nil, err
	}
	m, err := s.membership(ctx, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	return view(g, m), nil
}

// Update edits group details; group admins and staff only
func (s *Service) Update(ctx context.Context, userID, groupID string, in UpdateInput) (*GroupView, error) {
	g, err := s.load(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, g, userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Privacy != nil {
		fields["privacy"] = *in.Privacy
	}
	if in.CoverURL != nil {
		fields["cover_url"] = *in.CoverURL
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(g).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("update group: %w", err)
		}
	}
	return s.Get(ctx, userID, groupID)
}

// Join adds the user to a public group immediately. Joining a private group
// leaves a pending membership for a group admin to approve.
func (s *Service) Join(ctx context.Context, userID, groupID string) (*Membership, error) {
	g, err := s.load(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if existing, err := s.membership(ctx, groupID, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return &Membership{Role: existing.Role, Status: existing.Status}, nil
	}

	m := &models.GroupMember{GroupID: groupID, UserID: userID, Role: models.GroupRoleMember, Status: models.MembershipActive}
	if g.IsPrivate() {
		m.Status = models.MembershipPending
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m)
		if res.Error != nil || res.RowsAffected == 0 || m.Status != models.MembershipActive {
			return res.Error
		}
		return tx.Model(&models.Group{}).Where("id = ?", groupID).
			UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
	if err != nil {
		return nil, fmt.Errorf("join group: %w", err)
	}

	if m.Status == models.MembershipPending {
		s.notifyAdmins(ctx, g, userID)
	}
	return &Membership{Role: m.Role, Status: m.Status}, nil
}

func (s *Service) notifyAdmins(ctx context.Context, g *models.Group, requesterID string) {
	if s.notifier == nil {
		return
	}
	var admins []string
	if err := s.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND role = ? AND status = ?", g.ID, models.GroupRoleAdmin, models.MembershipActive).
		Pluck("user_id", &admins).Error; err != nil {
		logger.Log.Warn("Failed to load group admins", zap.String("group_id", g.ID), zap.Error(err))
		return
	}
	for _, adminID := range admins {
		s.notifier.Emit(ctx, notifications.Event{
			UserID:     adminID,
			ActorID:    requesterID,
			Type:       models.NotifyGroupRequest,
			EntityType: "group",
			EntityID:   g.ID,
			Message:    "asked to join " + g.Name,
		})
	}
}

// Leave removes the caller's membership, pending or active
func (s *Service) Leave(ctx context.Context, userID, groupID string) error {
	g, err := s.load(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return ErrOwnerLeave
	}
	return s.removeMember(ctx, groupID, userID)
}

func (s *Service) removeMember(ctx context.Context, groupID, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.GroupMember
		err := tx.First(&m, "group_id = ? AND user_id = ?", groupID, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		if m.Status != models.MembershipActive {
			return nil
		}
		return tx.Model(&models.Group{}).Where("id = ? AND member_count > 0", groupID).
			UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error
	})
}

// Approve activates a pending membership
func (s *Service) Approve(ctx context.Context, adminID, groupID, userID string) (*Membership, error) {
	g, err := s.load(ctx, adminID, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, g, adminID); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.MembershipPending).
			Update("status", models.MembershipActive)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMemberNotFound
		}
		return tx.Model(&models.Group{}).Where("id = ?", groupID).
			UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &Membership{Role: models.GroupRoleMember, Status: models.MembershipActive}, nil
}

// Members lists a group's members. Private groups only show their roster to
// members; pending requests are only shown to group admins.
func (s *Service) Members(ctx context.Context, viewerID, groupID string, status models.MembershipStatus, limit, offset int) ([]MemberView, bool, error) {
	g, err := s.load(ctx, viewerID, groupID)
	if err != nil {
		return nil, false, err
	}
	if status == "" {
		status = models.MembershipActive
	}

	if status == models.MembershipPending {
		if err := s.requireAdmin(ctx, g, viewerID); err != nil {
			return nil, false, err
		}
	} else if g.IsPrivate() {
		m, err := s.membership(ctx, groupID, viewerID)
		if err != nil {
			return nil, false, err
		}
		if (m == nil || m.Status != models.MembershipActive) && !s.role(ctx, viewerID).IsStaff() {
			return nil, false, ErrMembersOnly
		}
	}

	var rows []models.GroupMember
	err = s.db.WithContext(ctx).Preload("User").
		Where("group_id = ? AND status = ?", groupID, status).
		Order("created_at ASC").
		Limit(limit + 1).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, false, err
	}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	out := make([]MemberView, 0, len(rows))
	for _, m := range rows {
		out = append(out, MemberView{User: m.User.Public(), Role: m.Role, Status: m.Status, JoinedAt: m.CreatedAt})
	}
	return out, hasMore, nil
}

// Mine lists the visible groups the user is an active member of
func (s *Service) Mine(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&models.GroupMember{}).Select("group_id").
			Where("user_id = ? AND status = ?", userID, models.MembershipActive)).
		Where("disabled = ? AND deleted_at IS NULL", false).
		Order("name ASC").
		Find(&groups).Error
	return groups, err
}
