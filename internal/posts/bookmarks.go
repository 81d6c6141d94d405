package posts

import (
	"context"
	"time"

	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BookmarkTTL is how long a user's bookmark ID set stays cached
const BookmarkTTL = 60 * time.Second

func bookmarkKey(userID string) string { return "bookmarks:" + userID }

func (s *Service) invalidateBookmarks(ctx context.Context, userID string) {
	if err := s.cache.Del(ctx, bookmarkKey(userID)); err != nil {
		logger.Log.Warn("Failed to invalidate bookmark cache", logger.WithUserID(userID), zap.Error(err))
	}
}

// ToggleBookmark adds the bookmark when absent and removes it when present.
// It returns the resulting state.
func (s *Service) ToggleBookmark(ctx context.Context, viewerID, postID string) (bool, error) {
	if _, _, err := s.visible(ctx, viewerID, postID); err != nil {
		return false, err
	}

	var bookmarked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", viewerID, postID).Delete(&models.Bookmark{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			bookmarked = false
			return nil
		}
		bookmarked = true
		return tx.Create(&models.Bookmark{UserID: viewerID, PostID: postID}).Error
	})
	if err != nil {
		return false, err
	}

	state := "removed"
	if bookmarked {
		state = "added"
	}
	metrics.App().BookmarksToggled.WithLabelValues(state).Inc()
	s.invalidateBookmarks(ctx, viewerID)
	return bookmarked, nil
}

// BookmarkIDs returns the IDs of every post the viewer bookmarked, newest
// first. The set is cached for BookmarkTTL.
func (s *Service) BookmarkIDs(ctx context.Context, viewerID string) ([]string, error) {
	var ids []string
	if err := s.cache.GetJSON(ctx, bookmarkKey(viewerID), &ids); err == nil {
		metrics.CacheResult("bookmarks", true)
		return ids, nil
	}
	if s.cache.Enabled() {
		metrics.CacheResult("bookmarks", false)
	}

	if err := s.db.WithContext(ctx).Model(&models.Bookmark{}).
		Where("user_id = ?", viewerID).
		Order("created_at DESC").
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	if err := s.cache.SetJSON(ctx, bookmarkKey(viewerID), ids, BookmarkTTL); err != nil {
		logger.Log.Debug("Failed to cache bookmark ids", zap.Error(err))
	}
	return ids, nil
}

// Bookmarks lists bookmarked posts, newest bookmark first. Posts that became
// invisible to the viewer are skipped.
func (s *Service) Bookmarks(ctx context.Context, viewerID string, limit, offset int) (*Page, error) {
	v, err := LoadViewer(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}

	var marks []models.Bookmark
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", viewerID).
		Order("created_at DESC").
		Limit(limit + 1).Offset(offset).
		Find(&marks).Error; err != nil {
		return nil, err
	}
	hasMore := len(marks) > limit
	if hasMore {
		marks = marks[:limit]
	}

	ids := make([]string, len(marks))
	for i, m := range marks {
		ids[i] = m.PostID
	}
	var rows []models.Post
	if len(ids) > 0 {
		if err := WithRelations(s.db.WithContext(ctx)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
	}

	byID := make(map[string]models.Post, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	now := s.now()
	ordered := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && CanSee(v, &p, now) {
			ordered = append(ordered, p)
		}
	}

	return &Page{
		Posts:   s.Hydrate(ctx, v, ordered),
		Page:    offset/max(limit, 1) + 1,
		Limit:   limit,
		HasMore: hasMore,
	}, nil
}
