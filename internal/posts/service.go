// Package posts is the typed domain layer for posts: creation and visibility,
// reactions, comments, reshares and bookmarks.
package posts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maskapp/mask/internal/cache"
	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/notifications"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MaxTextLength    = 5000
	MaxCommentLength = 2000
	MaxEphemeralTTL  = 7 * 24 * time.Hour
)

var (
	ErrNotFound        = apierrors.NotFound("post")
	ErrCommentNotFound = apierrors.NotFound("comment")
	ErrForbidden       = apierrors.Forbidden("not allowed to modify this post")
	ErrPrivateReshare  = apierrors.Forbidden("posts from a private group cannot be shared outside it")
)

// Notifier emits user notifications
type Notifier interface {
	Emit(ctx context.Context, e notifications.Event) *models.Notification
	EmitMentions(ctx context.Context, actorID, text, entityType, entityID string) int
}

// FactChecker annotates posts out of band
type FactChecker interface {
	Schedule(postID, text string)
	Pills(ctx context.Context, postIDs []string) map[string]models.FactCheck
	Forget(ctx context.Context, postIDs ...string)
}

// Service implements post operations
type Service struct {
	db        *gorm.DB
	cache     *cache.RedisClient
	notifier  Notifier
	factcheck FactChecker
	now       func() time.Time
}

// NewService creates a post service. cache, notifier and factcheck may be nil.
func NewService(db *gorm.DB, rc *cache.RedisClient, notifier Notifier, fc FactChecker) *Service {
	return &Service{db: db, cache: rc, notifier: notifier, factcheck: fc, now: time.Now}
}

// DB exposes the connection for packages composing post queries
func (s *Service) DB() *gorm.DB { return s.db }

// Now is the service clock
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) notify(ctx context.Context, e notifications.Event) {
	if s.notifier != nil {
		s.notifier.Emit(ctx, e)
	}
}

func (s *Service) mentions(ctx context.Context, actorID, text, entityType, entityID string) {
	if s.notifier != nil {
		s.notifier.EmitMentions(ctx, actorID, text, entityType, entityID)
	}
}

// CreateInput is the body of POST /api/posts
type CreateInput struct {
	Text     string           `json:"text"`
	ImageURL string           `json:"image_url"`
	Scope    models.PostScope `json:"scope"`
	GroupID  string           `json:"group_id"`
	PageID   string           `json:"page_id"`
	// ExpiresIn makes the post ephemeral, in seconds
	ExpiresIn int64 `json:"expires_in"`
}

func (in *CreateInput) validate() *apierrors.APIError {
	in.Text = strings.TrimSpace(in.Text)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Scope == "" {
		in.Scope = models.ScopeGlobal
	}

	var fields []apierrors.FieldError
	if in.Text == "" && in.ImageURL == "" {
		fields = append(fields, apierrors.FieldError{Field: "text", Message: "text or image is required"})
	}
	if len(in.Text) > MaxTextLength {
		fields = append(fields, apierrors.FieldError{Field: "text", Message: "text is too long"})
	}
	if !in.Scope.Valid() {
		fields = append(fields, apierrors.FieldError{Field: "scope", Message: "must be global, group or page"})
	}
	switch in.Scope {
	case models.ScopeGlobal:
		if in.GroupID != "" || in.PageID != "" {
			fields = append(fields, apierrors.FieldError{Field: "scope", Message: "global posts cannot target a group or page"})
		}
	case models.ScopeGroup:
		if in.GroupID == "" {
			fields = append(fields, apierrors.FieldError{Field: "group_id", Message: "required for group posts"})
		}
	case models.ScopePage:
		if in.PageID == "" {
			fields = append(fields, apierrors.FieldError{Field: "page_id", Message: "required for page posts"})
		}
	}
	if in.ExpiresIn < 0 || time.Duration(in.ExpiresIn)*time.Second > MaxEphemeralTTL {
		fields = append(fields, apierrors.FieldError{Field: "expires_in", Message: "must be between 0 and 7 days"})
	}
	if len(fields) > 0 {
		return apierrors.ValidationErrors(fields)
	}
	return nil
}

// checkScopeTarget verifies the author may post into the group or page
func (s *Service) checkScopeTarget(ctx context.Context, tx *gorm.DB, v *Viewer, scope models.PostScope, groupID, pageID string) error {
	switch scope {
	case models.ScopeGroup:
		var g models.Group
		if err := tx.WithContext(ctx).First(&g, "id = ?", groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("group")
			}
			return err
		}
		if g.Hidden() {
			return apierrors.NotFound("group")
		}
		if !v.MemberOf(g.ID) {
			return apierrors.Forbidden("only group members can post here")
		}
	case models.ScopePage:
		var p models.Page
		if err := tx.WithContext(ctx).First(&p, "id = ?", pageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFound("page")
			}
			return err
		}
		if p.Hidden() {
			return apierrors.NotFound("page")
		}
		var count int64
		if err := tx.WithContext(ctx).Model(&models.PageAdmin{}).
			Where("page_id = ? AND user_id = ?", pageID, v.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apierrors.Forbidden("only page admins can post here")
		}
	}
	return nil
}

// Create stores a new original post and schedules its fact-check
func (s *Service) Create(ctx context.Context, authorID string, in CreateInput) (*PostView, error) {
	if apiErr := in.validate(); apiErr != nil {
		return nil, apiErr
	}
	v, err := LoadViewer(ctx, s.db, authorID)
	if err != nil {
		return nil, err
	}
	if err := s.checkScopeTarget(ctx, s.db, v, in.Scope, in.GroupID, in.PageID); err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID: authorID,
		Text:     in.Text,
		ImageURL: in.ImageURL,
		Scope:    in.Scope,
		Type:     models.PostOriginal,
	}
	if in.GroupID != "" {
		post.GroupID = &in.GroupID
	}
	if in.PageID != "" {
		post.PageID = &in.PageID
	}
	if in.ExpiresIn > 0 {
		exp := s.now().Add(time.Duration(in.ExpiresIn) * time.Second).UTC()
		post.ExpiresAt = &exp
	}

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	metrics.App().PostsCreated.WithLabelValues(string(post.Scope), string(post.Type)).Inc()
	logger.Log.Info("Post created",
		logger.WithPostID(post.ID),
		logger.WithUserID(authorID),
		zap.String("scope", string(post.Scope)))

	if s.factcheck != nil {
		s.factcheck.Schedule(post.ID, post.Text)
	}
	s.mentions(ctx, authorID, post.Text, "post", post.ID)

	return s.render(ctx, v, post.ID)
}

// load fetches a post with relations and applies visibility for v
func (s *Service) load(ctx context.Context, v *Viewer, id string) (*models.Post, error) {
	var post models.Post
	if err := WithRelations(s.db.WithContext(ctx)).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanSee(v, &post, s.now()) {
		return nil, ErrNotFound
	}
	return &post, nil
}

func (s *Service) render(ctx context.Context, v *Viewer, id string) (*PostView, error) {
	post, err := s.load(ctx, v, id)
	if err != nil {
		return nil, err
	}
	views := s.Hydrate(ctx, v, []models.Post{*post})
	return &views[0], nil
}

// visible loads the viewer and a post they can read
func (s *Service) visible(ctx context.Context, viewerID, postID string) (*Viewer, *models.Post, error) {
	v, err := LoadViewer(ctx, s.db, viewerID)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.load(ctx, v, postID)
	if err != nil {
		return nil, nil, err
	}
	return v, post, nil
}

// Get returns a post the viewer may read
func (s *Service) Get(ctx context.Context, viewerID, id string) (*PostView, error) {
	v, err := LoadViewer(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, v, id)
}

// Delete removes a post. Only its author and staff may delete.
func (s *Service) Delete(ctx context.Context, viewerID, id string) error {
	v, err := LoadViewer(ctx, s.db, viewerID)
	if err != nil {
		return err
	}
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if post.AuthorID != viewerID && !v.IsStaff() {
		return ErrForbidden
	}
	return s.Purge(ctx, []models.Post{post})
}

// Purge hard-deletes posts with their reactions, comments, shares, bookmarks
// and fact-checks. Reshares of a purged post remain and render the original
// as unavailable.
func (s *Service) Purge(ctx context.Context, list []models.Post) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}

	var bookmarkUsers []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Bookmark{}).Where("post_id IN ?", ids).
			Distinct().Pluck("user_id", &bookmarkUsers).Error; err != nil {
			return err
		}

		for _, p := range list {
			if p.Type == models.PostReshare && p.OriginalPostID != nil {
				if err := releaseShare(tx, p); err != nil {
					return err
				}
			}
		}

		for _, m := range []interface{}{&models.Reaction{}, &models.Comment{}, &models.Share{}, &models.Bookmark{}, &models.FactCheck{}} {
			if err := tx.Where("post_id IN ?", ids).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", ids).Delete(&models.Post{}).Error
	})
	if err != nil {
		return err
	}

	if s.factcheck != nil {
		s.factcheck.Forget(ctx, ids...)
	}
	for _, uid := range bookmarkUsers {
		s.invalidateBookmarks(ctx, uid)
	}
	return nil
}

// releaseShare drops the author's Share of the original when this was their
// last reshare of it.
func releaseShare(tx *gorm.DB, reshare models.Post) error {
	var others int64
	if err := tx.Model(&models.Post{}).
		Where("original_post_id = ? AND author_id = ? AND id <> ?", *reshare.OriginalPostID, reshare.AuthorID, reshare.ID).
		Count(&others).Error; err != nil {
		return err
	}
	if others > 0 {
		return nil
	}
	res := tx.Where("post_id = ? AND user_id = ?", *reshare.OriginalPostID, reshare.AuthorID).Delete(&models.Share{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return tx.Model(&models.Post{}).Where("id = ? AND share_count > 0", *reshare.OriginalPostID).
			UpdateColumn("share_count", gorm.Expr("share_count - 1")).Error
	}
	return nil
}

// ListFilter selects the posts of one author, group or page
type ListFilter struct {
	AuthorID string
	GroupID  string
	PageID   string
}

// Page is one page of rendered posts
type Page struct {
	Posts   []PostView `json:"posts"`
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
	HasMore bool       `json:"has_more"`
}

// List returns newest-first posts matching f that the viewer may read
func (s *Service) List(ctx context.Context, viewerID string, f ListFilter, limit, offset int) (*Page, error) {
	v, err := LoadViewer(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}

	switch {
	case f.GroupID != "":
		var g models.Group
		if err := s.db.WithContext(ctx).First(&g, "id = ?", f.GroupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierrors.NotFound("group")
			}
			return nil, err
		}
		if g.Hidden() && !v.IsStaff() {
			return nil, apierrors.NotFound("group")
		}
		if g.IsPrivate() && !v.MemberOf(g.ID) && !v.IsStaff() {
			return nil, apierrors.Forbidden("join this group to see its posts")
		}
	case f.PageID != "":
		var p models.Page
		if err := s.db.WithContext(ctx).First(&p, "id = ?", f.PageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierrors.NotFound("page")
			}
			return nil, err
		}
		if p.Hidden() && !v.IsStaff() {
			return nil, apierrors.NotFound("page")
		}
	}

	q := WithRelations(s.db.WithContext(ctx).Model(&models.Post{})).Scopes(VisibleScope(v, s.now()))
	if f.AuthorID != "" {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.GroupID != "" {
		q = q.Where("posts.scope = ? AND posts.group_id = ?", models.ScopeGroup, f.GroupID)
	}
	if f.PageID != "" {
		q = q.Where("posts.scope = ? AND posts.page_id = ?", models.ScopePage, f.PageID)
	}

	var rows []models.Post
	if err := q.Order("posts.created_at DESC").Limit(limit + 1).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	return &Page{
		Posts:   s.Hydrate(ctx, v, rows),
		Page:    offset/max(limit, 1) + 1,
		Limit:   limit,
		HasMore: hasMore,
	}, nil
}
