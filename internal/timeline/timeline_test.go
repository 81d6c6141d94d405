package timeline

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/database"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/posts"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

type fixture struct {
	db  *gorm.DB
	mr  *miniredis.Miniredis
	svc *Service
}

func setupTestDB(t *testing.T) *fixture {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	mr := miniredis.RunT(t)
	rc := cache.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	postSvc := posts.NewService(db, rc, nil, nil)
	return &fixture{db: db, mr: mr, svc: NewService(postSvc, rc)}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	u := &models.User{Pseudonym: name, PasswordHash: "x"}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) post(t *testing.T, p *models.Post) *models.Post {
	if p.Scope == "" {
		p.Scope = models.ScopeGlobal
	}
	if p.Type == "" {
		p.Type = models.PostOriginal
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func ids(views []posts.PostView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func TestTrendingScore(t *testing.T) {
	// Fresh posts are not divided below one hour
	assert.InDelta(t, 6.0, TrendingScore(1, 1, 1, 10*time.Minute), 1e-9)
	assert.InDelta(t, 6.0/8.0, TrendingScore(1, 1, 1, 4*time.Hour), 1e-9)
	assert.Zero(t, TrendingScore(0, 0, 0, time.Hour))
	// Shares weigh more than comments, which weigh more than reactions
	assert.Greater(t, TrendingScore(0, 0, 1, time.Hour), TrendingScore(0, 1, 0, time.Hour))
	assert.Greater(t, TrendingScore(0, 1, 0, time.Hour), TrendingScore(1, 0, 0, time.Hour))
}

func TestRankItems(t *testing.T) {
	now := time.Now()
	items := []candidate{
		{ID: "old-popular", ReactionCount: 100, CreatedAt: now.Add(-100 * time.Hour)},
		{ID: "fresh-some", ReactionCount: 5, CreatedAt: now.Add(-30 * time.Minute)},
		{ID: "tie-older", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "tie-newer", CreatedAt: now.Add(-1 * time.Hour)},
	}
	rankItems(items, now)

	got := make([]string, len(items))
	for i, it := range items {
		got[i] = it.ID
	}
	assert.Equal(t, []string{"fresh-some", "old-popular", "tie-newer", "tie-older"}, got)
}

func TestForYouScopes(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	me := f.user(t, "me")
	other := f.user(t, "other")

	mine := &models.Group{Name: "Mine", Privacy: models.GroupPrivate, OwnerID: other.ID}
	notMine := &models.Group{Name: "Elsewhere", Privacy: models.GroupPublic, OwnerID: other.ID}
	disabled := &models.Group{Name: "Banned", Privacy: models.GroupPublic, OwnerID: other.ID, Disabled: true}
	for _, g := range []*models.Group{mine, notMine, disabled} {
		require.NoError(t, f.db.Create(g).Error)
	}
	require.NoError(t, f.db.Create(&models.GroupMember{GroupID: mine.ID, UserID: me.ID}).Error)
	require.NoError(t, f.db.Create(&models.GroupMember{GroupID: disabled.ID, UserID: me.ID}).Error)

	followed := &models.Page{Name: "Followed", OwnerID: other.ID}
	unfollowed := &models.Page{Name: "Unfollowed", OwnerID: other.ID}
	require.NoError(t, f.db.Create(followed).Error)
	require.NoError(t, f.db.Create(unfollowed).Error)
	require.NoError(t, f.db.Create(&models.PageFollower{PageID: followed.ID, UserID: me.ID}).Error)

	base := time.Now().UTC().Add(-time.Hour)
	at := func(i int) time.Time { return base.Add(time.Duration(i) * time.Minute) }
	past := time.Now().UTC().Add(-time.Minute)

	global := f.post(t, &models.Post{AuthorID: other.ID, Text: "global", CreatedAt: at(1)})
	own := f.post(t, &models.Post{AuthorID: me.ID, Text: "own", CreatedAt: at(2)})
	inGroup := f.post(t, &models.Post{AuthorID: other.ID, Text: "group", Scope: models.ScopeGroup, GroupID: &mine.ID, CreatedAt: at(3)})
	f.post(t, &models.Post{AuthorID: other.ID, Text: "other group", Scope: models.ScopeGroup, GroupID: &notMine.ID, CreatedAt: at(4)})
	f.post(t, &models.Post{AuthorID: other.ID, Text: "banned", Scope: models.ScopeGroup, GroupID: &disabled.ID, CreatedAt: at(5)})
	onPage := f.post(t, &models.Post{AuthorID: other.ID, Text: "page", Scope: models.ScopePage, PageID: &followed.ID, CreatedAt: at(6)})
	f.post(t, &models.Post{AuthorID: other.ID, Text: "other page", Scope: models.ScopePage, PageID: &unfollowed.ID, CreatedAt: at(7)})
	f.post(t, &models.Post{AuthorID: other.ID, Text: "expired", ExpiresAt: &past, CreatedAt: at(8)})

	resp, err := f.svc.GetTimeline(ctx, me.ID, TabForYou, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{onPage.ID, inGroup.ID, own.ID, global.ID}, ids(resp.Posts))
	assert.False(t, resp.Meta.HasMore)
	assert.Equal(t, 4, resp.Meta.Count)

	first, err := f.svc.ForYou(ctx, me.ID, 2, 0)
	require.NoError(t, err)
	assert.True(t, first.Meta.HasMore)
	second, err := f.svc.ForYou(ctx, me.ID, 2, 2)
	require.NoError(t, err)
	assert.False(t, second.Meta.HasMore)
	assert.Equal(t, []string{own.ID, global.ID}, ids(second.Posts))
	assert.Equal(t, 2, second.Meta.Page)
}

func TestTrendingRanksAndCaches(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	me := f.user(t, "me")
	author := f.user(t, "author")
	now := time.Now().UTC()

	quiet := f.post(t, &models.Post{AuthorID: author.ID, Text: "quiet", CreatedAt: now.Add(-2 * time.Hour)})
	busy := f.post(t, &models.Post{AuthorID: author.ID, Text: "busy", ShareCount: 3, CommentCount: 2, CreatedAt: now.Add(-3 * time.Hour)})
	f.post(t, &models.Post{AuthorID: author.ID, Text: "ancient", ReactionCount: 1000, CreatedAt: now.Add(-8 * 24 * time.Hour)})

	secret := &models.Group{Name: "Secret", Privacy: models.GroupPrivate, OwnerID: author.ID}
	require.NoError(t, f.db.Create(secret).Error)
	f.post(t, &models.Post{AuthorID: author.ID, Text: "hidden", Scope: models.ScopeGroup, GroupID: &secret.ID, ReactionCount: 50, CreatedAt: now.Add(-time.Hour)})

	resp, err := f.svc.GetTimeline(ctx, me.ID, TabTrending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{busy.ID, quiet.ID}, ids(resp.Posts))
	assert.True(t, f.mr.Exists(trendingKey))

	// A new hot post is not picked up until the cached ranking expires
	hot := f.post(t, &models.Post{AuthorID: author.ID, Text: "hot", ReactionCount: 100, CreatedAt: now})
	resp, err = f.svc.Trending(ctx, me.ID, 10, 0)
	require.NoError(t, err)
	assert.NotContains(t, ids(resp.Posts), hot.ID)

	f.mr.FastForward(TrendingCacheTTL + time.Second)
	resp, err = f.svc.Trending(ctx, me.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{hot.ID}, ids(resp.Posts))
	assert.True(t, resp.Meta.HasMore)
}

func TestTrendingOffsetBounds(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	me := f.user(t, "me")
	author := f.user(t, "author")
	only := f.post(t, &models.Post{AuthorID: author.ID, Text: "only", CommentCount: 1, CreatedAt: time.Now().UTC()})

	resp, err := f.svc.Trending(ctx, me.ID, 10, -5)
	require.NoError(t, err)
	assert.Equal(t, []string{only.ID}, ids(resp.Posts))

	resp, err = f.svc.Trending(ctx, me.ID, 10, 1_000_000)
	require.NoError(t, err)
	assert.Empty(t, resp.Posts)
	assert.False(t, resp.Meta.HasMore)
}
