// Package pages manages followable public pages and their admins.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = apierrors.NotFound("page")
	ErrUserNotFound = apierrors.NotFound("user")
	ErrNotAdmin     = apierrors.Forbidden("page admin rights required")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// PageView is a page with the caller's relationship to it
type PageView struct {
	models.Page
	Following bool `json:"following"`
	IsAdmin   bool `json:"is_admin"`
}

type CreateInput struct {
	Name        string `json:"name" binding:"required,min=2,max=120"`
	Description string `json:"description" binding:"max=2000"`
	CoverURL    string `json:"cover_url" binding:"max=512"`
}

type UpdateInput struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=120"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	CoverURL    *string `json:"cover_url" binding:"omitempty,max=512"`
}

func (s *Service) isStaff(ctx context.Context, userID string) bool {
	var u models.User
	if err := s.db.WithContext(ctx).Select("id", "role").First(&u, "id = ?", userID).Error; err != nil {
		return false
	}
	return u.Role.IsStaff()
}

func (s *Service) exists(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(model).Where(query, args...).Count(&n).Error
	return n > 0, err
}

func (s *Service) load(ctx context.Context, viewerID, pageID string) (*models.Page, error) {
	var p models.Page
	err := s.db.WithContext(ctx).First(&p, "id = ?", pageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Hidden() && !s.isStaff(ctx, viewerID) {
		return nil, ErrNotFound
	}
	return &p, nil
}

// IsAdmin reports whether userID runs the page
func (s *Service) IsAdmin(ctx context.Context, pageID, userID string) (bool, error) {
	return s.exists(ctx, &models.PageAdmin{}, "page_id = ? AND user_id = ?", pageID, userID)
}

func (s *Service) requireAdmin(ctx context.Context, pageID, userID string) error {
	ok, err := s.IsAdmin(ctx, pageID, userID)
	if err != nil {
		return err
	}
	if !ok && !s.isStaff(ctx, userID) {
		return ErrNotAdmin
	}
	return nil
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*PageView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierrors.ValidationError("name", "name is required")
	}
	p := &models.Page{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CoverURL:    in.CoverURL,
		OwnerID:     ownerID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(&models.PageAdmin{PageID: p.ID, UserID: ownerID}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	logger.Log.Info("Page created", zap.String("page_id", p.ID), logger.WithUserID(ownerID))
	return &PageView{Page: *p, IsAdmin: true}, nil
}

func (s *Service) Get(ctx context.Context, viewerID, pageID string) (*PageView, error) {
	p, err := s.load(ctx, viewerID, pageID)
	if err != nil {
		return nil, err
	}
	v := &PageView{Page: *p}
	if viewerID == "" {
		return v, nil
	}
	if v.Following, err = s.exists(ctx, &models.PageFollower{}, "page_id = ? AND user_id = ?", pageID, viewerID); err != nil {
		return nil, err
	}
	if v.IsAdmin, err = s.IsAdmin(ctx, pageID, viewerID); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Update(ctx context.Context, userID, pageID string, in UpdateInput) (*PageView, error) {
	p, err := s.load(ctx, userID, pageID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, pageID, userID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.CoverURL != nil {
		fields["cover_url"] = *in.CoverURL
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(p).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("update page: %w", err)
		}
	}
	return s.Get(ctx, userID, pageID)
}

// Follow subscribes the user to the page's posts in their forYou feed
func (s *Service) Follow(ctx context.Context, userID, pageID string) error {
	if _, err := s.load(ctx, userID, pageID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PageFollower{PageID: pageID, UserID: userID})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return tx.Model(&models.Page{}).Where("id = ?", pageID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error
	})
}

func (s *Service) Unfollow(ctx context.Context, userID, pageID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("page_id = ? AND user_id = ?", pageID, userID).Delete(&models.PageFollower{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return tx.Model(&models.Page{}).Where("id = ? AND follower_count > 0", pageID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error
	})
}

// AddAdmin grants page admin rights to another user
func (s *Service) AddAdmin(ctx context.Context, actorID, pageID, userID string) error {
	if _, err := s.load(ctx, actorID, pageID); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, pageID, actorID); err != nil {
		return err
	}
	ok, err := s.exists(ctx, &models.User{}, "id = ? AND deleted_at IS NULL", userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PageAdmin{PageID: pageID, UserID: userID}).Error
}

// Admins lists the page's admins
func (s *Service) Admins(ctx context.Context, pageID string) ([]models.PublicUser, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN page_admins ON page_admins.user_id = users.id").
		Where("page_admins.page_id = ?", pageID).
		Order("page_admins.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}
