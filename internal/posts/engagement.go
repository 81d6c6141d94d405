package posts

import (
	"context"
	"errors"
	"strings"
	"time"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/notifications"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// React toggles the viewer's reaction on a post
func (s *Service) React(ctx context.Context, viewerID, postID string, t models.ReactionType) (*Aggregate, error) {
	if !t.Valid() {
		return nil, apierrors.ValidationError("type", "unknown reaction type")
	}
	_, post, err := s.visible(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}

	var outcome ReactionOutcome
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Reaction
		if err := tx.Where("post_id = ? AND user_id = ?", postID, viewerID).Find(&existing).Error; err != nil {
			return err
		}
		set := NewReactionSet(existing)
		outcome = set.Toggle(viewerID, t)

		switch outcome {
		case ReactionAdded:
			if err := tx.Create(&models.Reaction{PostID: postID, UserID: viewerID, Type: t}).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("reaction_count", gorm.Expr("reaction_count + 1")).Error
		case ReactionRemoved:
			if err := tx.Where("post_id = ? AND user_id = ?", postID, viewerID).Delete(&models.Reaction{}).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).Where("id = ? AND reaction_count > 0", postID).
				UpdateColumn("reaction_count", gorm.Expr("reaction_count - 1")).Error
		default:
			return tx.Model(&models.Reaction{}).
				Where("post_id = ? AND user_id = ?", postID, viewerID).
				Update("type", t).Error
		}
	})
	if err != nil {
		return nil, err
	}
	metrics.App().ReactionsToggled.WithLabelValues(string(outcome)).Inc()

	if outcome == ReactionAdded {
		s.notify(ctx, notifications.Event{
			UserID:     post.AuthorID,
			ActorID:    viewerID,
			Type:       models.NotifyReaction,
			EntityType: "post",
			EntityID:   postID,
			Message:    "reacted " + string(t) + " to your post",
		})
	}

	agg, err := s.Reactions(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	agg.Outcome = outcome
	return agg, nil
}

// Reactions returns the current reaction aggregate of a post
func (s *Service) Reactions(ctx context.Context, viewerID, postID string) (*Aggregate, error) {
	var all []models.Reaction
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Find(&all).Error; err != nil {
		return nil, err
	}
	set := NewReactionSet(all)
	return &Aggregate{
		PostID:     postID,
		Reactions:  set.Counts(),
		Total:      len(set),
		MyReaction: set[viewerID],
	}, nil
}

// CommentView is a comment with its author projected for display
type CommentView struct {
	ID        string            `json:"id"`
	PostID    string            `json:"post_id"`
	Author    models.PublicUser `json:"author"`
	Text      string            `json:"text"`
	CreatedAt time.Time         `json:"created_at"`
}

func commentView(c *models.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    c.User.Public(),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

// Comment adds a comment. Reshares take comments on the wrapper.
func (s *Service) Comment(ctx context.Context, viewerID, postID, text string) (*CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.ValidationError("text", "comment cannot be empty")
	}
	if len(text) > MaxCommentLength {
		return nil, apierrors.ValidationError("text", "comment is too long")
	}
	_, post, err := s.visible(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: viewerID, Text: text}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.App().CommentsTotal.Inc()

	s.notify(ctx, notifications.Event{
		UserID:     post.AuthorID,
		ActorID:    viewerID,
		Type:       models.NotifyComment,
		EntityType: "post",
		EntityID:   postID,
		Message:    "commented on your post",
	})
	s.mentions(ctx, viewerID, text, "post", postID)

	if err := s.db.WithContext(ctx).Preload("User").First(comment, "id = ?", comment.ID).Error; err != nil {
		return nil, err
	}
	view := commentView(comment)
	return &view, nil
}

// CommentPage is one page of comments, oldest first
type CommentPage struct {
	Comments []CommentView `json:"comments"`
	HasMore  bool          `json:"has_more"`
}

func (s *Service) Comments(ctx context.Context, viewerID, postID string, limit, offset int) (*CommentPage, error) {
	if _, _, err := s.visible(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	var rows []models.Comment
	if err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit + 1).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	out := make([]CommentView, len(rows))
	for i := range rows {
		out[i] = commentView(&rows[i])
	}
	return &CommentPage{Comments: out, HasMore: hasMore}, nil
}

// DeleteComment removes a comment. Allowed for the comment author, the post
// author and staff.
func (s *Service) DeleteComment(ctx context.Context, viewerID, postID, commentID string) error {
	v, err := LoadViewer(ctx, s.db, viewerID)
	if err != nil {
		return err
	}
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ? AND post_id = ?", commentID, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "author_id").First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if comment.UserID != viewerID && post.AuthorID != viewerID && !v.IsStaff() {
		return apierrors.Forbidden("not allowed to delete this comment")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Comment{}, "id = ?", commentID).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ? AND comment_count > 0", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
}

// ReshareInput is the body of POST /api/posts/:id/reshare. The target
// defaults to the global scope.
type ReshareInput struct {
	Text    string           `json:"text"`
	Scope   models.PostScope `json:"scope"`
	GroupID string           `json:"group_id"`
	PageID  string           `json:"page_id"`
}

// Reshare wraps a post in a new reshare post. Resharing a reshare wraps its
// root original. Private-group content may only be reshared back into the
// same group by a member.
func (s *Service) Reshare(ctx context.Context, viewerID, postID string, in ReshareInput) (*PostView, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Scope == "" {
		in.Scope = models.ScopeGlobal
	}
	if !in.Scope.Valid() {
		return nil, apierrors.ValidationError("scope", "must be global, group or page")
	}
	if len(in.Text) > MaxTextLength {
		return nil, apierrors.ValidationError("text", "text is too long")
	}

	v, target, err := s.visible(ctx, viewerID, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) && s.inPrivateGroup(ctx, postID) {
			metrics.App().ResharesTotal.WithLabelValues("rejected").Inc()
			return nil, ErrPrivateReshare
		}
		return nil, err
	}

	root := target
	if target.Type == models.PostReshare {
		if target.OriginalPost == nil || !CanSee(v, target.OriginalPost, s.now()) {
			return nil, ErrNotFound
		}
		root = target.OriginalPost
	}

	if root.Scope == models.ScopeGroup && root.Group != nil && root.Group.IsPrivate() {
		sameGroup := in.Scope == models.ScopeGroup && root.GroupID != nil && in.GroupID == *root.GroupID
		if !sameGroup || !v.MemberOf(root.Group.ID) {
			metrics.App().ResharesTotal.WithLabelValues("rejected").Inc()
			return nil, ErrPrivateReshare
		}
	}
	if err := s.checkScopeTarget(ctx, s.db, v, in.Scope, in.GroupID, in.PageID); err != nil {
		return nil, err
	}

	rootID := root.ID
	reshare := &models.Post{
		AuthorID:       viewerID,
		Text:           in.Text,
		Scope:          in.Scope,
		Type:           models.PostReshare,
		OriginalPostID: &rootID,
	}
	if in.Scope == models.ScopeGroup {
		reshare.GroupID = &in.GroupID
	}
	if in.Scope == models.ScopePage {
		reshare.PageID = &in.PageID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reshare).Error; err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Share{PostID: rootID, UserID: viewerID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", rootID).
			UpdateColumn("share_count", gorm.Expr("share_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.App().ResharesTotal.WithLabelValues("ok").Inc()
	metrics.App().PostsCreated.WithLabelValues(string(reshare.Scope), string(reshare.Type)).Inc()

	s.notify(ctx, notifications.Event{
		UserID:     root.AuthorID,
		ActorID:    viewerID,
		Type:       models.NotifyReshare,
		EntityType: "post",
		EntityID:   reshare.ID,
		Message:    "shared your post",
	})
	if in.Text != "" {
		s.mentions(ctx, viewerID, in.Text, "post", reshare.ID)
	}

	return s.render(ctx, v, reshare.ID)
}

// inPrivateGroup reports whether an unreadable post lives in a private group,
// so a reshare attempt by an outsider is refused rather than reported missing.
func (s *Service) inPrivateGroup(ctx context.Context, postID string) bool {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Group").First(&post, "id = ?", postID).Error; err != nil {
		return false
	}
	return post.Scope == models.ScopeGroup && post.Group != nil && post.Group.IsPrivate() && !post.Expired(s.now())
}
