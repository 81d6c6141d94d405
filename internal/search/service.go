// Package search matches users, posts, groups and pages by substring.
package search

import (
	"context"
	"strings"

	"github.com/maskapp/mask/internal/cache"
	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/posts"
	"github.com/maskapp/mask/internal/repository"
	"gorm.io/gorm"
)

// Result kinds accepted by the type parameter
const (
	TypeAll    = "all"
	TypeUsers  = "users"
	TypePosts  = "posts"
	TypeGroups = "groups"
	TypePages  = "pages"

	DefaultLimit = 10
	MaxLimit     = 50
	MaxQueryLen  = 100
)

var ErrEmptyQuery = apierrors.ValidationError("q", "search query is required")

type Request struct {
	Query string
	Type  string
	Limit int
}

type GroupHit struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Privacy     models.GroupPrivacy `json:"privacy"`
	MemberCount int                 `json:"member_count"`
}

type PageHit struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	FollowerCount int    `json:"follower_count"`
}

// Results holds one list per requested kind; kinds not searched stay nil
type Results struct {
	Query  string              `json:"query"`
	Users  []models.PublicUser `json:"users,omitempty"`
	Posts  []posts.PostView    `json:"posts,omitempty"`
	Groups []GroupHit          `json:"groups,omitempty"`
	Pages  []PageHit           `json:"pages,omitempty"`
}

type Service struct {
	db    *gorm.DB
	users repository.UserRepository
	posts *posts.Service
	cache *resultCache
}

func NewService(db *gorm.DB, users repository.UserRepository, postSvc *posts.Service, rc *cache.RedisClient) *Service {
	return &Service{
		db:    db,
		users: users,
		posts: postSvc,
		cache: &resultCache{redis: rc, ttl: ResultCacheTTL},
	}
}

// likePattern lowercases q and escapes LIKE wildcards so they match literally
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

func (s *Service) Search(ctx context.Context, viewerID string, req Request) (*Results, error) {
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if len(q) > MaxQueryLen {
		q = q[:MaxQueryLen]
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	kind := req.Type
	if kind == "" {
		kind = TypeAll
	}
	want := func(k string) bool { return kind == TypeAll || kind == k }
	switch kind {
	case TypeAll, TypeUsers, TypePosts, TypeGroups, TypePages:
	default:
		return nil, apierrors.ValidationError("type", "type must be all, users, posts, groups or pages")
	}

	out := &Results{Query: q}
	var err error
	if want(TypeUsers) {
		if out.Users, err = s.searchUsers(ctx, q, limit); err != nil {
			return nil, err
		}
	}
	if want(TypePosts) {
		if out.Posts, err = s.searchPosts(ctx, viewerID, q, limit); err != nil {
			return nil, err
		}
	}
	if want(TypeGroups) {
		if out.Groups, err = s.searchGroups(ctx, q, limit); err != nil {
			return nil, err
		}
	}
	if want(TypePages) {
		if out.Pages, err = s.searchPages(ctx, q, limit); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) searchUsers(ctx context.Context, q string, limit int) ([]models.PublicUser, error) {
	out := []models.PublicUser{}
	err := s.cache.load(ctx, TypeUsers, strings.ToLower(q), limit, &out, func() error {
		users, err := s.users.SearchUsers(ctx, q, limit, 0)
		if err != nil {
			return err
		}
		for _, u := range users {
			out = append(out, u.Public())
		}
		return nil
	})
	return out, err
}

func (s *Service) searchPosts(ctx context.Context, viewerID, q string, limit int) ([]posts.PostView, error) {
	v, err := posts.LoadViewer(ctx, s.db, viewerID)
	if err != nil {
		return nil, err
	}
	var rows []models.Post
	err = posts.WithRelations(s.db.WithContext(ctx).Model(&models.Post{})).
		Scopes(posts.VisibleScope(v, s.posts.Now())).
		Where(`LOWER(posts.text) LIKE ? ESCAPE '\'`, likePattern(q)).
		Order("posts.created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return s.posts.Hydrate(ctx, v, rows), nil
}

func (s *Service) searchGroups(ctx context.Context, q string, limit int) ([]GroupHit, error) {
	out := []GroupHit{}
	err := s.cache.load(ctx, TypeGroups, strings.ToLower(q), limit, &out, func() error {
		var groups []models.Group
		if err := s.db.WithContext(ctx).
			Where("disabled = ? AND deleted_at IS NULL", false).
			Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(q)).
			Order("member_count DESC").
			Limit(limit).
			Find(&groups).Error; err != nil {
			return err
		}
		for _, g := range groups {
			out = append(out, GroupHit{ID: g.ID, Name: g.Name, Description: g.Description, Privacy: g.Privacy, MemberCount: g.MemberCount})
		}
		return nil
	})
	return out, err
}

func (s *Service) searchPages(ctx context.Context, q string, limit int) ([]PageHit, error) {
	out := []PageHit{}
	err := s.cache.load(ctx, TypePages, strings.ToLower(q), limit, &out, func() error {
		var pages []models.Page
		if err := s.db.WithContext(ctx).
			Where("disabled = ? AND deleted_at IS NULL", false).
			Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(q)).
			Order("follower_count DESC").
			Limit(limit).
			Find(&pages).Error; err != nil {
			return err
		}
		for _, p := range pages {
			out = append(out, PageHit{ID: p.ID, Name: p.Name, Description: p.Description, FollowerCount: p.FollowerCount})
		}
		return nil
	})
	return out, err
}
