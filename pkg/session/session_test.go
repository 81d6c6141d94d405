package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/maskapp/mask/pkg/credentials"
	"github.com/maskapp/mask/pkg/wellness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SessionTestSuite struct {
	suite.Suite
	store *credentials.FileStore
	path  string
}

func (s *SessionTestSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "credentials.json")
	s.store = credentials.NewFileStore(s.path)
}

func validCreds() *credentials.Credentials {
	return &credentials.Credentials{
		AccessToken: "jwt",
		ExpiresAt:   time.Now().Add(time.Hour),
		UserID:      "u1",
		Pseudonym:   "alice",
		Role:        "user",
	}
}

func (s *SessionTestSuite) TestNewPersistsCredentials() {
	sess, err := New(s.store, validCreds())
	s.Require().NoError(err)
	s.Equal("jwt", sess.Token())
	s.Equal("alice", sess.Pseudonym())
	s.True(sess.Active())

	loaded, err := s.store.Load()
	s.Require().NoError(err)
	s.Require().NotNil(loaded)
	s.Equal("u1", loaded.UserID)
}

func (s *SessionTestSuite) TestNewRejectsExpired() {
	creds := validCreds()
	creds.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := New(s.store, creds)
	s.ErrorIs(err, ErrNotLoggedIn)
}

func (s *SessionTestSuite) TestResume() {
	_, err := Resume(s.store)
	s.ErrorIs(err, ErrNotLoggedIn)

	_, err = New(s.store, validCreds())
	s.Require().NoError(err)

	sess, err := Resume(s.store)
	s.Require().NoError(err)
	s.Equal("u1", sess.UserID())
	s.Equal("user", sess.Role())
}

func (s *SessionTestSuite) TestResumeDropsExpired() {
	creds := validCreds()
	creds.ExpiresAt = time.Now().Add(-time.Minute)
	s.Require().NoError(s.store.Save(creds))

	_, err := Resume(s.store)
	s.ErrorIs(err, ErrNotLoggedIn)
	s.NoFileExists(s.path)
}

func (s *SessionTestSuite) TestAdminKeyIsPersisted() {
	sess, err := New(s.store, validCreds())
	s.Require().NoError(err)
	s.Require().NoError(sess.SetAdminKey("k3y"))
	s.Equal("k3y", sess.AdminKey())

	resumed, err := Resume(s.store)
	s.Require().NoError(err)
	s.Equal("k3y", resumed.AdminKey())
}

func (s *SessionTestSuite) TestCloseClearsEverything() {
	sess, err := New(s.store, validCreds())
	s.Require().NoError(err)

	cache := sess.UseBookmarks(func(context.Context) ([]string, error) {
		return []string{"p1"}, nil
	})
	ok, err := cache.Has(context.Background(), "p1")
	s.Require().NoError(err)
	s.True(ok)

	wstore := &wellness.MemoryStore{}
	_, err = sess.UseWellness(wellness.DefaultPolicy(), wstore, time.Now())
	s.Require().NoError(err)

	s.Require().NoError(sess.Close())
	s.Empty(sess.Token())
	s.Empty(sess.AdminKey())
	s.False(sess.Active())
	s.Nil(sess.Bookmarks())
	s.Nil(sess.Wellness())
	s.Equal(0, cache.Len())
	s.Positive(wstore.Saves, "tracker flushed on close")
	s.NoFileExists(s.path)

	// second close is harmless
	s.NoError(sess.Close())
	s.ErrorIs(sess.SetAdminKey("x"), ErrNotLoggedIn)
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func TestNilSessionIsAnonymous(t *testing.T) {
	var sess *Session
	assert.Empty(t, sess.Token())
	assert.Empty(t, sess.AdminKey())
}

func TestSessionWithoutStore(t *testing.T) {
	sess, err := New(nil, validCreds())
	require.NoError(t, err)
	require.NoError(t, sess.SetAdminKey("k"))
	assert.NoError(t, sess.Close())
}
