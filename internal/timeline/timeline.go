package timeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/posts"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tab selects the feed
type Tab string

const (
	TabForYou   Tab = "forYou"
	TabTrending Tab = "trending"
)

func (t Tab) Valid() bool {
	return t == TabForYou || t == TabTrending
}

const (
	// TrendingWindow bounds how old a trending candidate may be
	TrendingWindow = 7 * 24 * time.Hour
	// TrendingCacheTTL is how long a ranking is reused
	TrendingCacheTTL = 60 * time.Second
	// trendingCandidates caps how many recent posts are ranked
	trendingCandidates = 500

	trendingKey = "timeline:trending"
)

// TimelineResponse is one page of a feed
type TimelineResponse struct {
	Posts []posts.PostView `json:"posts"`
	Meta  TimelineMeta     `json:"meta"`
}

// TimelineMeta contains metadata about the timeline response
type TimelineMeta struct {
	Tab     Tab  `json:"tab"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}

// Service assembles the forYou and trending feeds
type Service struct {
	db    *gorm.DB
	posts *posts.Service
	cache *cache.RedisClient
	now   func() time.Time
}

// NewService creates a new timeline service
func NewService(postService *posts.Service, rc *cache.RedisClient) *Service {
	return &Service{db: postService.DB(), posts: postService, cache: rc, now: postService.Now}
}

// GetTimeline dispatches to the requested tab
func (s *Service) GetTimeline(ctx context.Context, viewerID string, tab Tab, limit, offset int) (*TimelineResponse, error) {
	start := time.Now()
	defer func() {
		metrics.Get().FeedGenerationTime.WithLabelValues(string(tab)).Observe(time.Since(start).Seconds())
	}()

	switch tab {
	case TabTrending:
		return s.Trending(ctx, viewerID, limit, offset)
	default:
		return s.ForYou(ctx, viewerID, limit, offset)
	}
}

func (s *Service) meta(tab Tab, limit, offset, count int, hasMore bool) TimelineMeta {
	return TimelineMeta{
		Tab:     tab,
		Page:    offset/max(limit, 1) + 1,
		Limit:   limit,
		Offset:  offset,
		Count:   count,
		HasMore: hasMore,
	}
}

// ForYou returns reverse-chronological posts from the global scope, the
// viewer's groups, the pages they follow or run, and their own posts.
// Expired posts and posts in disabled groups or pages are left out.
func (s *Service) ForYou(ctx context.Context, viewerID string, limit, offset int) (*TimelineResponse, error) {
	db := s.db.WithContext(ctx)
	v, err := posts.LoadViewer(ctx, db, viewerID)
	if err != nil {
		return nil, err
	}

	var pageIDs []string
	if err := db.Model(&models.PageFollower{}).Where("user_id = ?", viewerID).Pluck("page_id", &pageIDs).Error; err != nil {
		return nil, fmt.Errorf("followed pages: %w", err)
	}
	var adminPages []string
	if err := db.Model(&models.PageAdmin{}).Where("user_id = ?", viewerID).Pluck("page_id", &adminPages).Error; err != nil {
		return nil, fmt.Errorf("admin pages: %w", err)
	}
	pageIDs = append(pageIDs, adminPages...)

	groupIDs := make([]string, 0, len(v.Groups))
	for id := range v.Groups {
		groupIDs = append(groupIDs, id)
	}

	session := db.Session(&gorm.Session{NewDB: true})
	sources := session.Where("posts.author_id = ?", viewerID).
		Or("posts.scope = ?", models.ScopeGlobal)
	if len(groupIDs) > 0 {
		sources = sources.Or("posts.scope = ? AND posts.group_id IN ?", models.ScopeGroup, groupIDs)
	}
	if len(pageIDs) > 0 {
		sources = sources.Or("posts.scope = ? AND posts.page_id IN ?", models.ScopePage, pageIDs)
	}

	// Staff see hidden content on direct reads but not in their own feed
	feedViewer := *v
	feedViewer.Role = models.RoleUser

	var rows []models.Post
	err = posts.WithRelations(db.Model(&models.Post{})).
		Scopes(posts.VisibleScope(&feedViewer, s.now())).
		Where(sources).
		Order("posts.created_at DESC").
		Limit(limit + 1).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("for you feed: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	rows = dedupe(rows)

	views := s.posts.Hydrate(ctx, v, rows)
	return &TimelineResponse{Posts: views, Meta: s.meta(TabForYou, limit, offset, len(views), hasMore)}, nil
}

// dedupe drops repeated post IDs, keeping the first occurrence
func dedupe(rows []models.Post) []models.Post {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, p := range rows {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// TrendingScore weighs engagement against age:
// (reactions + 2*comments + 3*shares) / max(1, age in hours)^1.5
func TrendingScore(reactions, comments, shares int, age time.Duration) float64 {
	hours := math.Max(1, age.Hours())
	return float64(reactions+2*comments+3*shares) / math.Pow(hours, 1.5)
}

type candidate struct {
	ID            string
	ReactionCount int
	CommentCount  int
	ShareCount    int
	CreatedAt     time.Time
	Score         float64
}

// rankedIDs returns the global trending order, cached briefly in redis
func (s *Service) rankedIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.cache.GetJSON(ctx, trendingKey, &ids); err == nil {
		metrics.CacheResult("trending", true)
		return ids, nil
	}
	if s.cache.Enabled() {
		metrics.CacheResult("trending", false)
	}

	now := s.now().UTC()
	var items []candidate
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Select("id, reaction_count, comment_count, share_count, created_at").
		Where("type = ? AND created_at > ?", models.PostOriginal, now.Add(-TrendingWindow)).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at DESC").
		Limit(trendingCandidates).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("trending candidates: %w", err)
	}

	rankItems(items, now)

	ids = make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	if err := s.cache.SetJSON(ctx, trendingKey, ids, TrendingCacheTTL); err != nil {
		logger.Log.Debug("Failed to cache trending ranking", zap.Error(err))
	}
	return ids, nil
}

// rankItems scores and sorts candidates in place
func rankItems(items []candidate, now time.Time) {
	for i := range items {
		it := &items[i]
		it.Score = TrendingScore(it.ReactionCount, it.CommentCount, it.ShareCount, now.Sub(it.CreatedAt))
	}
	sort.SliceStable(items, func(i, j int) bool {
		// If scores are very close, prefer more recent
		if math.Abs(items[i].Score-items[j].Score) < 1e-9 {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].Score > items[j].Score
	})
}

// Trending pages through the ranked posts the viewer may read
func (s *Service) Trending(ctx context.Context, viewerID string, limit, offset int) (*TimelineResponse, error) {
	offset = max(offset, 0)
	db := s.db.WithContext(ctx)
	v, err := posts.LoadViewer(ctx, db, viewerID)
	if err != nil {
		return nil, err
	}

	ranked, err := s.rankedIDs(ctx)
	if err != nil {
		return nil, err
	}

	visible := make(map[string]bool, len(ranked))
	if len(ranked) > 0 {
		var ids []string
		if err := db.Model(&models.Post{}).
			Scopes(posts.VisibleScope(v, s.now())).
			Where("posts.id IN ?", ranked).
			Pluck("posts.id", &ids).Error; err != nil {
			return nil, fmt.Errorf("trending visibility: %w", err)
		}
		for _, id := range ids {
			visible[id] = true
		}
	}

	ordered := make([]string, 0, len(visible))
	for _, id := range ranked {
		if visible[id] {
			ordered = append(ordered, id)
		}
	}

	var pageIDs []string
	if offset < len(ordered) {
		end := min(offset+limit, len(ordered))
		pageIDs = ordered[offset:end]
	}
	hasMore := offset+limit < len(ordered)

	var rows []models.Post
	if len(pageIDs) > 0 {
		if err := posts.WithRelations(db).Where("id IN ?", pageIDs).Find(&rows).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[string]models.Post, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	page := make([]models.Post, 0, len(pageIDs))
	for _, id := range pageIDs {
		if p, ok := byID[id]; ok {
			page = append(page, p)
		}
	}

	views := s.posts.Hydrate(ctx, v, page)
	return &TimelineResponse{Posts: views, Meta: s.meta(TabTrending, limit, offset, len(views), hasMore)}, nil
}

// Invalidate drops the cached trending ranking
func (s *Service) Invalidate(ctx context.Context) {
	_ = s.cache.Del(ctx, trendingKey)
}
