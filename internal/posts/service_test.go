package posts

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/database"
	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/factcheck"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/notifications"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Emit(_ context.Context, e notifications.Event) *models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return &models.Notification{UserID: e.UserID, Type: e.Type}
}

func (r *recordingNotifier) EmitMentions(context.Context, string, string, string, string) int {
	return 0
}

func (r *recordingNotifier) types() []models.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.NotificationType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type PostServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	mr       *miniredis.Miniredis
	notifier *recordingNotifier
	checker  *factcheck.Annotator
	svc      *Service
	ctx      context.Context

	alice   *models.User
	bob     *models.User
	carol   *models.User
	admin   *models.User
	private *models.Group
}

func (s *PostServiceTestSuite) SetupTest() {
	db, err := database.OpenInMemory()
	require.NoError(s.T(), err)
	s.db = db
	s.mr = miniredis.RunT(s.T())
	rc := cache.Wrap(redis.NewClient(&redis.Options{Addr: s.mr.Addr()}))
	s.notifier = &recordingNotifier{}
	s.checker = factcheck.NewAnnotator(db, rc, nil, time.Second)
	s.svc = NewService(db, rc, s.notifier, s.checker)
	s.ctx = context.Background()

	s.alice = s.user("alice", models.RoleUser)
	s.bob = s.user("bob", models.RoleUser)
	s.carol = s.user("carol", models.RoleUser)
	s.admin = s.user("root", models.RoleAdmin)

	s.private = &models.Group{Name: "Secret", Privacy: models.GroupPrivate, OwnerID: s.alice.ID}
	require.NoError(s.T(), db.Create(s.private).Error)
	s.member(s.private.ID, s.alice.ID)
	s.member(s.private.ID, s.bob.ID)
}

func (s *PostServiceTestSuite) TearDownTest() {
	s.checker.Wait()
}

func (s *PostServiceTestSuite) user(name string, role models.Role) *models.User {
	u := &models.User{Pseudonym: name, PasswordHash: "x", Role: role}
	require.NoError(s.T(), s.db.Create(u).Error)
	return u
}

func (s *PostServiceTestSuite) member(groupID, userID string) {
	require.NoError(s.T(), s.db.Create(&models.GroupMember{GroupID: groupID, UserID: userID, Status: models.MembershipActive}).Error)
}

func (s *PostServiceTestSuite) post(author *models.User, text string) *PostView {
	v, err := s.svc.Create(s.ctx, author.ID, CreateInput{Text: text})
	require.NoError(s.T(), err)
	s.checker.Wait()
	return v
}

func (s *PostServiceTestSuite) groupPost(author *models.User, group *models.Group) *PostView {
	v, err := s.svc.Create(s.ctx, author.ID, CreateInput{Text: "inside", Scope: models.ScopeGroup, GroupID: group.ID})
	require.NoError(s.T(), err)
	s.checker.Wait()
	return v
}

func statusOf(err error) int {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func (s *PostServiceTestSuite) TestCreateRequiresContent() {
	_, err := s.svc.Create(s.ctx, s.alice.ID, CreateInput{Text: "   "})
	require.Error(s.T(), err)
	assert.Equal(s.T(), http.StatusBadRequest, statusOf(err))

	_, err = s.svc.Create(s.ctx, s.alice.ID, CreateInput{ImageURL: "/uploads/1-a.png"})
	assert.NoError(s.T(), err)
}

func (s *PostServiceTestSuite) TestCreateInGroupRequiresMembership() {
	_, err := s.svc.Create(s.ctx, s.carol.ID, CreateInput{Text: "hi", Scope: models.ScopeGroup, GroupID: s.private.ID})
	assert.Equal(s.T(), http.StatusForbidden, statusOf(err))

	view := s.groupPost(s.bob, s.private)
	require.NotNil(s.T(), view.Group)
	assert.Equal(s.T(), models.GroupPrivate, view.Group.Privacy)
}

func (s *PostServiceTestSuite) TestPrivateGroupPostHiddenFromOutsiders() {
	p := s.groupPost(s.alice, s.private)

	_, err := s.svc.Get(s.ctx, s.carol.ID, p.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	_, err = s.svc.Get(s.ctx, s.bob.ID, p.ID)
	assert.NoError(s.T(), err)

	_, err = s.svc.Get(s.ctx, s.admin.ID, p.ID)
	assert.NoError(s.T(), err, "staff can read for moderation")
}

func (s *PostServiceTestSuite) TestReactSameTypeTwiceRemoves() {
	p := s.post(s.alice, "hello")

	agg, err := s.svc.React(s.ctx, s.bob.ID, p.ID, models.ReactionLike)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), ReactionAdded, agg.Outcome)
	assert.Equal(s.T(), 1, agg.Total)
	assert.Equal(s.T(), models.ReactionLike, agg.MyReaction)

	agg, err = s.svc.React(s.ctx, s.bob.ID, p.ID, models.ReactionLike)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), ReactionRemoved, agg.Outcome)
	assert.Zero(s.T(), agg.Total)
	assert.Empty(s.T(), agg.MyReaction)

	var stored models.Post
	require.NoError(s.T(), s.db.First(&stored, "id = ?", p.ID).Error)
	assert.Zero(s.T(), stored.ReactionCount)
}

func (s *PostServiceTestSuite) TestReactDifferentTypeOverwrites() {
	p := s.post(s.alice, "hello")

	_, err := s.svc.React(s.ctx, s.bob.ID, p.ID, models.ReactionLike)
	require.NoError(s.T(), err)
	agg, err := s.svc.React(s.ctx, s.bob.ID, p.ID, models.ReactionLove)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), ReactionChanged, agg.Outcome)
	assert.Equal(s.T(), map[models.ReactionType]int{models.ReactionLove: 1}, agg.Reactions)

	var count int64
	s.db.Model(&models.Reaction{}).Where("post_id = ?", p.ID).Count(&count)
	assert.Equal(s.T(), int64(1), count)

	// Only the first reaction notified the author
	assert.Equal(s.T(), []models.NotificationType{models.NotifyReaction}, s.notifier.types())
}

func (s *PostServiceTestSuite) TestReactRejectsUnknownType() {
	p := s.post(s.alice, "hello")
	_, err := s.svc.React(s.ctx, s.bob.ID, p.ID, "meh")
	assert.Equal(s.T(), http.StatusBadRequest, statusOf(err))
}

func (s *PostServiceTestSuite) TestReshareOfPrivateGroupPostByNonMemberIsForbidden() {
	p := s.groupPost(s.alice, s.private)

	_, err := s.svc.Reshare(s.ctx, s.carol.ID, p.ID, ReshareInput{})
	assert.ErrorIs(s.T(), err, ErrPrivateReshare)
	assert.Equal(s.T(), http.StatusForbidden, statusOf(err))
}

func (s *PostServiceTestSuite) TestReshareCannotLeavePrivateGroup() {
	p := s.groupPost(s.alice, s.private)

	_, err := s.svc.Reshare(s.ctx, s.bob.ID, p.ID, ReshareInput{Scope: models.ScopeGlobal})
	assert.ErrorIs(s.T(), err, ErrPrivateReshare)

	view, err := s.svc.Reshare(s.ctx, s.bob.ID, p.ID, ReshareInput{Scope: models.ScopeGroup, GroupID: s.private.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.PostReshare, view.Type)
	require.NotNil(s.T(), view.Original)
	assert.Equal(s.T(), p.ID, view.Original.ID)
}

func (s *PostServiceTestSuite) TestReshareOfReshareWrapsRoot() {
	p := s.post(s.alice, "original thought")

	first, err := s.svc.Reshare(s.ctx, s.bob.ID, p.ID, ReshareInput{Text: "look"})
	require.NoError(s.T(), err)
	second, err := s.svc.Reshare(s.ctx, s.carol.ID, first.ID, ReshareInput{})
	require.NoError(s.T(), err)

	require.NotNil(s.T(), second.Original)
	assert.Equal(s.T(), p.ID, second.Original.ID)
	assert.Equal(s.T(), "original thought", second.Original.Text)

	// Resharing again by the same user does not count twice
	_, err = s.svc.Reshare(s.ctx, s.bob.ID, p.ID, ReshareInput{})
	require.NoError(s.T(), err)

	var root models.Post
	require.NoError(s.T(), s.db.First(&root, "id = ?", p.ID).Error)
	assert.Equal(s.T(), 2, root.ShareCount)
}

func (s *PostServiceTestSuite) TestBookmarkToggleIsIdempotentPerCall() {
	p := s.post(s.alice, "save me")

	ids, err := s.svc.BookmarkIDs(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), ids)
	assert.True(s.T(), s.mr.Exists("bookmarks:"+s.bob.ID))

	on, err := s.svc.ToggleBookmark(s.ctx, s.bob.ID, p.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), on)
	assert.False(s.T(), s.mr.Exists("bookmarks:"+s.bob.ID), "toggle invalidates the cached set")

	ids, err = s.svc.BookmarkIDs(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{p.ID}, ids)

	off, err := s.svc.ToggleBookmark(s.ctx, s.bob.ID, p.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), off)

	ids, err = s.svc.BookmarkIDs(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), ids)
}

func (s *PostServiceTestSuite) TestBookmarksListSkipsInvisible() {
	public := s.post(s.alice, "public")
	private := s.groupPost(s.bob, s.private)

	_, err := s.svc.ToggleBookmark(s.ctx, s.bob.ID, public.ID)
	require.NoError(s.T(), err)
	_, err = s.svc.ToggleBookmark(s.ctx, s.bob.ID, private.ID)
	require.NoError(s.T(), err)

	// Bob leaves the private group
	require.NoError(s.T(), s.db.Where("group_id = ? AND user_id = ?", s.private.ID, s.bob.ID).Delete(&models.GroupMember{}).Error)

	page, err := s.svc.Bookmarks(s.ctx, s.bob.ID, 10, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), page.Posts, 1)
	assert.Equal(s.T(), public.ID, page.Posts[0].ID)
	assert.True(s.T(), page.Posts[0].Bookmarked)
}

func (s *PostServiceTestSuite) TestDeletedAuthorRendersAsDeletedUser() {
	p := s.post(s.alice, "still here")
	now := time.Now()
	require.NoError(s.T(), s.db.Model(s.alice).Updates(map[string]interface{}{
		"deleted_at": &now,
		"pseudonym":  "deleted-" + s.alice.ID[:8],
	}).Error)

	view, err := s.svc.Get(s.ctx, s.bob.ID, p.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.DeletedUserName, view.Author.Pseudonym)
	assert.Empty(s.T(), view.Author.ProfileURL)
	assert.Empty(s.T(), view.Author.AvatarURL)
	assert.True(s.T(), view.Author.Deleted)
	assert.Equal(s.T(), "still here", view.Text)
}

func (s *PostServiceTestSuite) TestLegacyDeletedPseudonymRendersAsDeletedUser() {
	p := s.post(s.carol, "legacy")
	require.NoError(s.T(), s.db.Model(s.carol).Update("pseudonym", "deleted-abc123").Error)

	view, err := s.svc.Get(s.ctx, s.bob.ID, p.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), view.Author.Deleted)
}

func (s *PostServiceTestSuite) TestExpiredPostIsNotFound() {
	v, err := s.svc.Create(s.ctx, s.alice.ID, CreateInput{Text: "brief", ExpiresIn: 60})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), v.ExpiresAt)

	s.svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.svc.Get(s.ctx, s.bob.ID, v.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *PostServiceTestSuite) TestReshareRendersDeletedOriginalAsUnavailable() {
	p := s.post(s.alice, "gone soon")
	r, err := s.svc.Reshare(s.ctx, s.bob.ID, p.ID, ReshareInput{})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.svc.Delete(s.ctx, s.alice.ID, p.ID))

	view, err := s.svc.Get(s.ctx, s.carol.ID, r.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), view.Original)
	assert.True(s.T(), view.OriginalUnavailable)
}

func (s *PostServiceTestSuite) TestDeletePermissionsAndPurge() {
	p := s.post(s.alice, "mine")
	_, err := s.svc.Comment(s.ctx, s.bob.ID, p.ID, "nice")
	require.NoError(s.T(), err)
	_, err = s.svc.React(s.ctx, s.bob.ID, p.ID, models.ReactionWow)
	require.NoError(s.T(), err)
	_, err = s.svc.ToggleBookmark(s.ctx, s.bob.ID, p.ID)
	require.NoError(s.T(), err)

	assert.ErrorIs(s.T(), s.svc.Delete(s.ctx, s.bob.ID, p.ID), ErrForbidden)
	require.NoError(s.T(), s.svc.Delete(s.ctx, s.admin.ID, p.ID))

	for _, m := range []interface{}{&models.Post{}, &models.Comment{}, &models.Reaction{}, &models.Bookmark{}, &models.FactCheck{}} {
		var n int64
		s.db.Model(m).Count(&n)
		assert.Zero(s.T(), n)
	}
}

func (s *PostServiceTestSuite) TestCommentLifecycle() {
	p := s.post(s.alice, "discuss")

	c, err := s.svc.Comment(s.ctx, s.bob.ID, p.ID, "  first!  ")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "first!", c.Text)
	assert.Equal(s.T(), "bob", c.Author.Pseudonym)

	_, err = s.svc.Comment(s.ctx, s.bob.ID, p.ID, "")
	assert.Equal(s.T(), http.StatusBadRequest, statusOf(err))

	page, err := s.svc.Comments(s.ctx, s.carol.ID, p.ID, 10, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), page.Comments, 1)

	assert.Equal(s.T(), http.StatusForbidden, statusOf(s.svc.DeleteComment(s.ctx, s.carol.ID, p.ID, c.ID)))
	require.NoError(s.T(), s.svc.DeleteComment(s.ctx, s.alice.ID, p.ID, c.ID), "post author may delete")

	var stored models.Post
	require.NoError(s.T(), s.db.First(&stored, "id = ?", p.ID).Error)
	assert.Zero(s.T(), stored.CommentCount)
	assert.Contains(s.T(), s.notifier.types(), models.NotifyComment)
}

func (s *PostServiceTestSuite) TestFactCheckFailureDoesNotBlockPost() {
	p := s.post(s.alice, "The earth is flat")

	view, err := s.svc.Get(s.ctx, s.bob.ID, p.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), view.FactCheck)

	var fc models.FactCheck
	require.NoError(s.T(), s.db.First(&fc, "post_id = ?", p.ID).Error)
	assert.Equal(s.T(), models.FactCheckUnavailable, fc.Status)
}

func (s *PostServiceTestSuite) TestListByGroupForOutsider() {
	s.groupPost(s.alice, s.private)

	_, err := s.svc.List(s.ctx, s.carol.ID, ListFilter{GroupID: s.private.ID}, 10, 0)
	assert.Equal(s.T(), http.StatusForbidden, statusOf(err))

	page, err := s.svc.List(s.ctx, s.bob.ID, ListFilter{GroupID: s.private.ID}, 10, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), page.Posts, 1)

	own, err := s.svc.List(s.ctx, s.carol.ID, ListFilter{AuthorID: s.alice.ID}, 10, 0)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), own.Posts, "private group posts stay hidden on profiles")
}

func TestPostServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PostServiceTestSuite))
}
