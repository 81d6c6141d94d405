// Package admin implements the moderation console operations.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxQuoteLength = 500

var (
	ErrUserNotFound  = apierrors.NotFound("user")
	ErrGroupNotFound = apierrors.NotFound("group")
	ErrPageNotFound  = apierrors.NotFound("page")
	ErrQuoteNotFound = apierrors.NotFound("quote")
	ErrSelfAction    = apierrors.BadRequest("admins cannot change their own account here")
	ErrInvalidRole   = apierrors.ValidationError("role", "role must be user, moderator or admin")
	ErrNotDeleted    = apierrors.BadRequest("account is not deleted")
	ErrPseudonymUsed = apierrors.Conflict("pseudonym")
)

type Service struct {
	db    *gorm.DB
	users repository.UserRepository
	now   func() time.Time
}

func NewService(db *gorm.DB, users repository.UserRepository) *Service {
	return &Service{db: db, users: users, now: time.Now}
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

func audit(actorID, action string, fields ...zap.Field) {
	logger.Log.Info("Admin action", append([]zap.Field{logger.WithUserID(actorID), zap.String("action", action)}, fields...)...)
}

// UserList is a page of accounts for the console, deleted ones included
type UserList struct {
	Users   []*models.User `json:"users"`
	Total   int64          `json:"total"`
	HasMore bool           `json:"has_more"`
}

func (s *Service) Users(ctx context.Context, query string, limit, offset int) (*UserList, error) {
	users, total, err := s.users.ListUsers(ctx, strings.TrimSpace(query), limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return &UserList{Users: users, Total: total, HasMore: int64(offset+len(users)) < total}, nil
}

func (s *Service) SetRole(ctx context.Context, actorID, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if actorID == userID {
		return nil, ErrSelfAction
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"role": role}); err != nil {
		return nil, mapUserErr(err)
	}
	audit(actorID, "set_role", zap.String("target", userID), zap.String("role", string(role)))
	return s.user(ctx, userID)
}

// SetDisabled blocks or unblocks login. Disabled users' content stays visible.
func (s *Service) SetDisabled(ctx context.Context, actorID, userID string, disabled bool) (*models.User, error) {
	if actorID == userID {
		return nil, ErrSelfAction
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"disabled": disabled}); err != nil {
		return nil, mapUserErr(err)
	}
	audit(actorID, "set_disabled", zap.String("target", userID), zap.Bool("disabled", disabled))
	return s.user(ctx, userID)
}

func (s *Service) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrSelfAction
	}
	if err := s.users.SoftDelete(ctx, userID, s.now().UTC()); err != nil {
		return mapUserErr(err)
	}
	audit(actorID, "delete_user", zap.String("target", userID))
	return nil
}

// RestoreUser undoes a soft delete. The original pseudonym was overwritten
// on deletion so the caller supplies a new one.
func (s *Service) RestoreUser(ctx context.Context, actorID, userID, pseudonym string) (*models.User, error) {
	pseudonym = strings.TrimSpace(pseudonym)
	if pseudonym == "" || strings.HasPrefix(strings.ToLower(pseudonym), "deleted") {
		return nil, apierrors.ValidationError("pseudonym", "a new pseudonym is required")
	}
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsDeleted() {
		return nil, ErrNotDeleted
	}
	if _, err := s.users.GetUserByPseudonym(ctx, pseudonym); err == nil {
		return nil, ErrPseudonymUsed
	}
	if err := s.users.Restore(ctx, userID, pseudonym); err != nil {
		return nil, mapUserErr(err)
	}
	audit(actorID, "restore_user", zap.String("target", userID))
	return s.user(ctx, userID)
}

func (s *Service) user(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return u, nil
}

// Groups lists groups for moderation, hidden ones included
func (s *Service) Groups(ctx context.Context, query string, limit, offset int) ([]models.Group, bool, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	var rows []models.Group
	if err := q.Limit(limit + 1).Offset(offset).Find(&rows).Error; err != nil {
		return nil, false, err
	}
	if len(rows) > limit {
		return rows[:limit], true, nil
	}
	return rows, false, nil
}

func (s *Service) Pages(ctx context.Context, query string, limit, offset int) ([]models.Page, bool, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	var rows []models.Page
	if err := q.Limit(limit + 1).Offset(offset).Find(&rows).Error; err != nil {
		return nil, false, err
	}
	if len(rows) > limit {
		return rows[:limit], true, nil
	}
	return rows, false, nil
}

func (s *Service) update(ctx context.Context, model interface{}, id string, fields map[string]interface{}, notFound error) error {
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}

func (s *Service) SetGroupDisabled(ctx context.Context, actorID, groupID string, disabled bool) error {
	if err := s.update(ctx, &models.Group{}, groupID, map[string]interface{}{"disabled": disabled}, ErrGroupNotFound); err != nil {
		return err
	}
	audit(actorID, "set_group_disabled", zap.String("group_id", groupID), zap.Bool("disabled", disabled))
	return nil
}

// DeleteGroup hides the group permanently; its rows are kept
func (s *Service) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	if err := s.update(ctx, &models.Group{}, groupID, map[string]interface{}{"deleted_at": s.now().UTC()}, ErrGroupNotFound); err != nil {
		return err
	}
	audit(actorID, "delete_group", zap.String("group_id", groupID))
	return nil
}

func (s *Service) SetPageDisabled(ctx context.Context, actorID, pageID string, disabled bool) error {
	if err := s.update(ctx, &models.Page{}, pageID, map[string]interface{}{"disabled": disabled}, ErrPageNotFound); err != nil {
		return err
	}
	audit(actorID, "set_page_disabled", zap.String("page_id", pageID), zap.Bool("disabled", disabled))
	return nil
}

func (s *Service) DeletePage(ctx context.Context, actorID, pageID string) error {
	if err := s.update(ctx, &models.Page{}, pageID, map[string]interface{}{"deleted_at": s.now().UTC()}, ErrPageNotFound); err != nil {
		return err
	}
	audit(actorID, "delete_page", zap.String("page_id", pageID))
	return nil
}

// QuoteInput creates or patches a motivation quote
type QuoteInput struct {
	Text   *string `json:"text"`
	Author *string `json:"author"`
	Active *bool   `json:"active"`
}

func validQuoteText(text string) error {
	switch {
	case text == "":
		return apierrors.ValidationError("text", "text is required")
	case utf8.RuneCountInString(text) > maxQuoteLength:
		return apierrors.ValidationError("text", fmt.Sprintf("text must be at most %d characters", maxQuoteLength))
	}
	return nil
}

func (s *Service) Quotes(ctx context.Context) ([]models.Quote, error) {
	quotes := []models.Quote{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&quotes).Error
	return quotes, err
}

func (s *Service) CreateQuote(ctx context.Context, in QuoteInput) (*models.Quote, error) {
	q := &models.Quote{Active: true}
	if in.Text != nil {
		q.Text = strings.TrimSpace(*in.Text)
	}
	if err := validQuoteText(q.Text); err != nil {
		return nil, err
	}
	if in.Author != nil {
		q.Author = strings.TrimSpace(*in.Author)
	}
	if in.Active != nil {
		q.Active = *in.Active
	}
	if err := s.db.WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) UpdateQuote(ctx context.Context, id string, in QuoteInput) (*models.Quote, error) {
	fields := map[string]interface{}{}
	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if err := validQuoteText(text); err != nil {
			return nil, err
		}
		fields["text"] = text
	}
	if in.Author != nil {
		fields["author"] = strings.TrimSpace(*in.Author)
	}
	if in.Active != nil {
		fields["active"] = *in.Active
	}

	db := s.db.WithContext(ctx)
	var q models.Quote
	if err := db.First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	if len(fields) > 0 {
		if err := db.Model(&q).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return &q, nil
}

func (s *Service) DeleteQuote(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Quote{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuoteNotFound
	}
	return nil
}

// Stats is the dashboard summary
type Stats struct {
	Users       int64 `json:"users"`
	Posts       int64 `json:"posts"`
	OpenReports int64 `json:"open_reports"`
	Groups      int64 `json:"groups"`
	Pages       int64 `json:"pages"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	st := &Stats{}
	var err error
	if st.Users, err = s.users.GetTotalUserCount(ctx); err != nil {
		return nil, err
	}
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&st.Posts, db.Model(&models.Post{})},
		{&st.OpenReports, db.Model(&models.Report{}).Where("status = ?", models.ReportOpen)},
		{&st.Groups, db.Model(&models.Group{}).Where("deleted_at IS NULL")},
		{&st.Pages, db.Model(&models.Page{}).Where("deleted_at IS NULL")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return st, nil
}
