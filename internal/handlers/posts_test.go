package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/posts"
	"github.com/maskapp/mask/internal/timeline"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// POST ENDPOINT TESTS
// =============================================================================

func (suite *HandlersTestSuite) TestCreatePostUnauthorized() {
	w := suite.do(http.MethodPost, "/api/posts", nil, gin.H{"text": "hi"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostRequiresContent() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/posts", suite.alice, gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", suite.errorCode(w))
}

func (suite *HandlersTestSuite) TestCreateAndGetPost() {
	t := suite.T()

	post := suite.createPost(suite.alice, gin.H{"text": "hello mask"})
	assert.Equal(t, models.ScopeGlobal, post.Scope)
	assert.Equal(t, "alice", post.Author.Pseudonym)

	w := suite.do(http.MethodGet, "/api/posts/"+post.ID, suite.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Post posts.PostView `json:"post"`
	}
	suite.decode(w, &resp)
	assert.Equal(t, "hello mask", resp.Post.Text)

	w = suite.do(http.MethodGet, "/api/posts/missing", suite.bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestDeletePostOnlyAuthorOrStaff() {
	t := suite.T()
	post := suite.createPost(suite.alice, gin.H{"text": "mine"})

	w := suite.do(http.MethodDelete, "/api/posts/"+post.ID, suite.bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do(http.MethodDelete, "/api/posts/"+post.ID, suite.mod, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/posts/"+post.ID, suite.alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestReactToggle() {
	t := suite.T()
	post := suite.createPost(suite.alice, gin.H{"text": "react to me"})
	path := "/api/posts/" + post.ID + "/react"

	var agg posts.Aggregate
	w := suite.do(http.MethodPost, path, suite.bob, gin.H{"type": "love"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &agg)
	assert.Equal(t, posts.ReactionAdded, agg.Outcome)
	assert.Equal(t, 1, agg.Reactions[models.ReactionLove])

	w = suite.do(http.MethodPost, path, suite.bob, gin.H{"type": "haha"})
	suite.decode(w, &agg)
	assert.Equal(t, posts.ReactionChanged, agg.Outcome)
	assert.Equal(t, 1, agg.Total)
	assert.Equal(t, models.ReactionHaha, agg.MyReaction)

	w = suite.do(http.MethodPost, path, suite.bob, gin.H{"type": "haha"})
	agg = posts.Aggregate{}
	suite.decode(w, &agg)
	assert.Equal(t, posts.ReactionRemoved, agg.Outcome)
	assert.Equal(t, 0, agg.Total)

	w = suite.do(http.MethodPost, path, suite.bob, gin.H{"type": "meh"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestComments() {
	t := suite.T()
	post := suite.createPost(suite.alice, gin.H{"text": "discuss"})
	path := "/api/posts/" + post.ID + "/comments"

	w := suite.do(http.MethodPost, path, suite.bob, gin.H{"text": "first"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, path, suite.bob, gin.H{"text": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, path, suite.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "first")
}

func (suite *HandlersTestSuite) TestBookmarkToggle() {
	t := suite.T()
	post := suite.createPost(suite.alice, gin.H{"text": "save me"})
	path := "/api/posts/" + post.ID + "/bookmark"

	var resp struct {
		PostID     string `json:"post_id"`
		Bookmarked bool   `json:"bookmarked"`
	}
	w := suite.do(http.MethodPost, path, suite.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	suite.decode(w, &resp)
	assert.True(t, resp.Bookmarked)

	var ids struct {
		IDs []string `json:"ids"`
	}
	w = suite.do(http.MethodGet, "/api/posts/bookmarks/ids", suite.bob, nil)
	suite.decode(w, &ids)
	assert.Equal(t, []string{post.ID}, ids.IDs)

	var page posts.Page
	w = suite.do(http.MethodGet, "/api/posts/bookmarks", suite.bob, nil)
	suite.decode(w, &page)
	require.Len(t, page.Posts, 1)
	assert.True(t, page.Posts[0].Bookmarked)

	w = suite.do(http.MethodPost, path, suite.bob, nil)
	suite.decode(w, &resp)
	assert.False(t, resp.Bookmarked)
}

func (suite *HandlersTestSuite) TestReshare() {
	t := suite.T()
	post := suite.createPost(suite.alice, gin.H{"text": "worth sharing"})

	// body is optional
	w := suite.do(http.MethodPost, "/api/posts/"+post.ID+"/reshare", suite.bob, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Post posts.PostView `json:"post"`
	}
	suite.decode(w, &resp)
	require.NotNil(t, resp.Post.Original)
	assert.Equal(t, post.ID, resp.Post.Original.ID)
}

func (suite *HandlersTestSuite) TestReshareFromPrivateGroupForbidden() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/groups", suite.alice, gin.H{"name": "Inner Circle", "privacy": "private"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Group models.Group `json:"group"`
	}
	suite.decode(w, &created)

	post := suite.createPost(suite.alice, gin.H{
		"text":     "members only",
		"scope":    "group",
		"group_id": created.Group.ID,
	})

	w = suite.do(http.MethodPost, "/api/posts/"+post.ID+"/reshare", suite.alice, gin.H{"text": "look"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", suite.errorCode(w))

	// outsiders can't see it at all
	w = suite.do(http.MethodGet, "/api/posts/"+post.ID, suite.bob, nil)
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, w.Code)
}

func (suite *HandlersTestSuite) TestFeedTabs() {
	t := suite.T()
	suite.createPost(suite.alice, gin.H{"text": "one"})
	suite.createPost(suite.bob, gin.H{"text": "two"})

	var resp timeline.TimelineResponse
	w := suite.do(http.MethodGet, "/api/posts/feed?tab=forYou", suite.alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &resp)
	assert.Len(t, resp.Posts, 2)
	assert.Equal(t, timeline.TabForYou, resp.Meta.Tab)

	w = suite.do(http.MethodGet, "/api/posts/feed?tab=trending", suite.alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/posts/feed?tab=latest", suite.alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func feedSamples(t require.TestingT, tab timeline.Tab) uint64 {
	var m dto.Metric
	h := metrics.Get().FeedGenerationTime.WithLabelValues(string(tab))
	require.NoError(t, h.(interface{ Write(*dto.Metric) error }).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func (suite *HandlersTestSuite) TestFeedObservedOncePerRequest() {
	t := suite.T()
	before := feedSamples(t, timeline.TabForYou)

	w := suite.do(http.MethodGet, "/api/posts/feed?tab=forYou", suite.alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, before+1, feedSamples(t, timeline.TabForYou))
}

func (suite *HandlersTestSuite) TestFactCheckWithoutProvider() {
	t := suite.T()
	post := suite.createPost(suite.alice, gin.H{"text": "the moon is made of cheese"})

	w := suite.do(http.MethodGet, "/api/factcheck/"+post.ID, suite.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fc models.FactCheck
	suite.decode(w, &fc)
	assert.Equal(t, models.FactCheckUnavailable, fc.Status)

	w = suite.do(http.MethodGet, "/api/factcheck/missing", suite.bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
