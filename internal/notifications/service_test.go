package notifications

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/maskapp/mask/internal/database"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

type pushed struct {
	userID  string
	msgType string
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (r *recordingPusher) Push(userID, msgType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, pushed{userID, msgType})
}

type NotificationServiceTestSuite struct {
	suite.Suite
	db     *gorm.DB
	pusher *recordingPusher
	svc    *Service
	ctx    context.Context
	alice  *models.User
	bob    *models.User
}

func (s *NotificationServiceTestSuite) SetupTest() {
	db, err := database.OpenInMemory()
	require.NoError(s.T(), err)
	s.db = db
	s.pusher = &recordingPusher{}
	s.svc = NewService(db, s.pusher)
	s.ctx = context.Background()

	s.alice = &models.User{Pseudonym: "alice", PasswordHash: "x"}
	s.bob = &models.User{Pseudonym: "Bob", PasswordHash: "x"}
	require.NoError(s.T(), db.Create(s.alice).Error)
	require.NoError(s.T(), db.Create(s.bob).Error)
}

func (s *NotificationServiceTestSuite) TestEmitStoresAndPushes() {
	n := s.svc.Emit(s.ctx, Event{UserID: s.bob.ID, ActorID: s.alice.ID, Type: models.NotifyFollow, Message: "followed you"})
	require.NotNil(s.T(), n)

	assert.Equal(s.T(), []pushed{{s.bob.ID, MessageType}}, s.pusher.sent)

	res, err := s.svc.List(s.ctx, s.bob.ID, 10, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), res.Items, 1)
	assert.Equal(s.T(), int64(1), res.UnreadCount)
	require.NotNil(s.T(), res.Items[0].Actor)
	assert.Equal(s.T(), "alice", res.Items[0].Actor.Pseudonym)
}

func (s *NotificationServiceTestSuite) TestEmitSkipsSelf() {
	assert.Nil(s.T(), s.svc.Emit(s.ctx, Event{UserID: s.alice.ID, ActorID: s.alice.ID, Type: models.NotifyReaction}))
	assert.Empty(s.T(), s.pusher.sent)
}

func (s *NotificationServiceTestSuite) TestMentionsAreCaseInsensitive() {
	sent := s.svc.EmitMentions(s.ctx, s.alice.ID, "hey @bob and @alice and @nobody", "post", "p1")
	assert.Equal(s.T(), 1, sent)

	res, err := s.svc.List(s.ctx, s.bob.ID, 10, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), res.Items, 1)
	assert.Equal(s.T(), models.NotifyMention, res.Items[0].Type)
	assert.Equal(s.T(), "p1", res.Items[0].EntityID)
}

func (s *NotificationServiceTestSuite) TestReadAndReadAll() {
	first := s.svc.Emit(s.ctx, Event{UserID: s.bob.ID, ActorID: s.alice.ID, Type: models.NotifyComment})
	s.svc.Emit(s.ctx, Event{UserID: s.bob.ID, ActorID: s.alice.ID, Type: models.NotifyReaction})

	require.NoError(s.T(), s.svc.MarkRead(s.ctx, s.bob.ID, first.ID))
	assert.Error(s.T(), s.svc.MarkRead(s.ctx, s.alice.ID, first.ID), "cannot read another user's notification")

	changed, err := s.svc.MarkAllRead(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), changed)

	res, err := s.svc.List(s.ctx, s.bob.ID, 10, 0)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), res.UnreadCount)
}

func (s *NotificationServiceTestSuite) TestListPaging() {
	for i := 0; i < 3; i++ {
		s.svc.Emit(s.ctx, Event{UserID: s.bob.ID, ActorID: s.alice.ID, Type: models.NotifyReaction})
	}
	res, err := s.svc.List(s.ctx, s.bob.ID, 2, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), res.Items, 2)
	assert.True(s.T(), res.HasMore)

	res, err = s.svc.List(s.ctx, s.bob.ID, 2, 2)
	require.NoError(s.T(), err)
	assert.Len(s.T(), res.Items, 1)
	assert.False(s.T(), res.HasMore)
}

func (s *NotificationServiceTestSuite) TestMotivationOncePerDay() {
	n, err := s.svc.Motivation(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), n, "no quotes yet")

	require.NoError(s.T(), s.db.Create(&models.Quote{Text: "Go outside", Author: "Someone", Active: true}).Error)
	require.NoError(s.T(), s.db.Create(&models.Quote{Text: "Hidden", Active: false}).Error)

	n, err = s.svc.Motivation(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), n)
	assert.Equal(s.T(), "Go outside - Someone", n.Message)

	again, err := s.svc.Motivation(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), again)
	assert.Equal(s.T(), n.ID, again.ID)

	require.NoError(s.T(), s.svc.MarkRead(s.ctx, s.bob.ID, n.ID))
	afterRead, err := s.svc.Motivation(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), afterRead)

	// Tomorrow brings a new one
	s.svc.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	tomorrow, err := s.svc.Motivation(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), tomorrow)
	assert.NotEqual(s.T(), n.ID, tomorrow.ID)
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
