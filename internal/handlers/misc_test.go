package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/messages"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/search"
	"github.com/maskapp/mask/internal/storage"
	"github.com/maskapp/mask/pkg/wellness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func (suite *HandlersTestSuite) TestHealth() {
	t := suite.T()

	w := suite.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	suite.decode(w, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "disabled", resp.Checks["redis"])
}

func (suite *HandlersTestSuite) TestWellnessConfig() {
	t := suite.T()

	w := suite.do(http.MethodGet, "/api/config/wellness", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var wire wellness.Wire
	suite.decode(w, &wire)
	assert.Equal(t, wellness.DefaultPolicy().Hash(), wire.Hash)
}

// =============================================================================
// UPLOADS
// =============================================================================

func (suite *HandlersTestSuite) upload(filename string, data []byte, kind string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if kind != "" {
		require.NoError(suite.T(), mw.WriteField("kind", kind))
	}
	if data != nil {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(suite.T(), err)
		_, err = fw.Write(data)
		require.NoError(suite.T(), err)
	}
	require.NoError(suite.T(), mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", suite.alice.ID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) TestUploadImage() {
	t := suite.T()

	w := suite.upload("face.png", pngHeader, storage.KindAvatar)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res storage.UploadResult
	suite.decode(w, &res)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, "/uploads/"+res.Name, res.URL)

	_, err := os.Stat(suite.uploadDir + "/" + res.Name)
	assert.NoError(t, err)
}

func (suite *HandlersTestSuite) TestUploadRejections() {
	t := suite.T()

	w := suite.upload("", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.upload("notes.png", []byte("just some text, honest"), "")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	// the suite's uploader caps files at 1 KiB
	big := append(append([]byte{}, pngHeader...), make([]byte, 2<<10)...)
	w = suite.upload("big.png", big, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", suite.errorCode(w))

	w = suite.upload("face.png", pngHeader, "banner")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// SEARCH
// =============================================================================

func (suite *HandlersTestSuite) TestSearch() {
	t := suite.T()
	suite.createPost(suite.bob, gin.H{"text": "alpacas are underrated"})

	w := suite.do(http.MethodGet, "/api/search?q=alpaca&type=posts", suite.alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res search.Results
	suite.decode(w, &res)
	require.Len(t, res.Posts, 1)
	assert.Empty(t, res.Users)

	w = suite.do(http.MethodGet, "/api/search?q=ali&type=users", suite.bob, nil)
	res = search.Results{}
	suite.decode(w, &res)
	require.NotEmpty(t, res.Users)
	assert.Equal(t, "alice", res.Users[0].Pseudonym)

	w = suite.do(http.MethodGet, "/api/search?q=", suite.alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// MESSAGES AND NOTIFICATIONS
// =============================================================================

func (suite *HandlersTestSuite) TestDirectMessages() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/messages/"+suite.bob.ID, suite.alice, gin.H{"text": "hey bob"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = suite.do(http.MethodPost, "/api/messages/"+suite.alice.ID, suite.bob, gin.H{"text": "hey alice"})
	require.Equal(t, http.StatusCreated, w.Code)

	var history messages.History
	w = suite.do(http.MethodGet, "/api/messages/"+suite.alice.ID, suite.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	suite.decode(w, &history)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "hey bob", history.Messages[0].Text)
	assert.Equal(t, "hey alice", history.Messages[1].Text)

	w = suite.do(http.MethodPost, "/api/messages/"+suite.alice.ID, suite.alice, gin.H{"text": "me"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "no messages to self")

	w = suite.do(http.MethodPost, "/api/messages/"+suite.bob.ID, suite.alice, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/messages/conversations", suite.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), suite.bob.ID)
}

func (suite *HandlersTestSuite) TestReactionNotifiesAuthor() {
	t := suite.T()
	post := suite.createPost(suite.alice, gin.H{"text": "notify me"})

	w := suite.do(http.MethodPost, "/api/posts/"+post.ID+"/react", suite.bob, gin.H{"type": "like"})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", suite.alice.ID, models.NotifyReaction).
		Count(&count)
	assert.Equal(t, int64(1), count)

	w = suite.do(http.MethodGet, "/api/notifications", suite.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.NotifyReaction))
}

func (suite *HandlersTestSuite) TestJoinPrivateGroupIsPending() {
	t := suite.T()

	w := suite.do(http.MethodPost, "/api/groups", suite.alice, gin.H{"name": "Quiet Room", "privacy": "private"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Group models.Group `json:"group"`
	}
	suite.decode(w, &created)

	w = suite.do(http.MethodPost, "/api/groups/"+created.Group.ID+"/join", suite.bob, nil)
	assert.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
}
