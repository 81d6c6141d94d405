package auth

import (
	"context"
	"os"
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

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
	ctx         context.Context
}

// SetupTest gives every test a fresh in-memory database
func (suite *AuthServiceTestSuite) SetupTest() {
	db, err := database.OpenInMemory()
	require.NoError(suite.T(), err)
	suite.db = db
	suite.authService = NewService(db, []byte("test_jwt_secret_key"), time.Hour)
	suite.ctx = context.Background()
}

func (suite *AuthServiceTestSuite) TestRegisterWithoutEmail() {
	resp, err := suite.authService.Register(suite.ctx, RegisterRequest{
		Pseudonym: "nightowl",
		Password:  "password123",
	})
	require.NoError(suite.T(), err)

	assert.NotEmpty(suite.T(), resp.Token)
	assert.Equal(suite.T(), "nightowl", resp.User.Pseudonym)
	assert.Nil(suite.T(), resp.User.Email)
	assert.Equal(suite.T(), models.RoleUser, resp.User.Role)
	assert.NotEqual(suite.T(), "password123", resp.User.PasswordHash)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicatePseudonymIsCaseInsensitive() {
	_, err := suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "Raven", Password: "password123"})
	require.NoError(suite.T(), err)

	_, err = suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "raven", Password: "password456"})
	assert.ErrorIs(suite.T(), err, ErrPseudonymTaken)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	_, err := suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "first", Email: "a@example.com", Password: "password123"})
	require.NoError(suite.T(), err)

	_, err = suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "second", Email: "A@example.com", Password: "password123"})
	assert.ErrorIs(suite.T(), err, ErrEmailTaken)
}

func (suite *AuthServiceTestSuite) TestTwoUsersWithoutEmailCoexist() {
	_, err := suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "alpha", Password: "password123"})
	require.NoError(suite.T(), err)
	_, err = suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "bravo", Password: "password123"})
	require.NoError(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestLoginByPseudonymOrEmail() {
	_, err := suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "heron", Email: "heron@example.com", Password: "password123"})
	require.NoError(suite.T(), err)

	resp, err := suite.authService.Login(suite.ctx, LoginRequest{Identifier: "HERON", Password: "password123"})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "heron", resp.User.Pseudonym)

	resp, err = suite.authService.Login(suite.ctx, LoginRequest{Identifier: "heron@example.com", Password: "password123"})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.Token)
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	_, err := suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "heron", Password: "password123"})
	require.NoError(suite.T(), err)

	_, err = suite.authService.Login(suite.ctx, LoginRequest{Identifier: "heron", Password: "wrong-password"})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)

	_, err = suite.authService.Login(suite.ctx, LoginRequest{Identifier: "nobody", Password: "password123"})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestDisabledUserCannotLoginOrUseToken() {
	resp, err := suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "moth", Password: "password123"})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.db.Model(&models.User{}).Where("id = ?", resp.User.ID).Update("disabled", true).Error)

	_, err = suite.authService.Login(suite.ctx, LoginRequest{Identifier: "moth", Password: "password123"})
	assert.ErrorIs(suite.T(), err, ErrAccountDisabled)

	_, err = suite.authService.ValidateToken(suite.ctx, resp.Token)
	assert.ErrorIs(suite.T(), err, ErrAccountDisabled)
}

func (suite *AuthServiceTestSuite) TestTokenRoundTripCarriesRole() {
	user := &models.User{Pseudonym: "boss", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(suite.T(), suite.db.Create(user).Error)

	resp, err := suite.authService.IssueToken(user)
	require.NoError(suite.T(), err)

	claims, err := suite.authService.ParseToken(resp.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), user.ID, claims.UserID)
	assert.Equal(suite.T(), models.RoleAdmin, claims.Role)

	loaded, err := suite.authService.ValidateToken(suite.ctx, resp.Token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "boss", loaded.Pseudonym)
}

func (suite *AuthServiceTestSuite) TestExpiredTokenRejected() {
	user := &models.User{Pseudonym: "late", PasswordHash: "x"}
	require.NoError(suite.T(), suite.db.Create(user).Error)

	resp, err := suite.authService.IssueToken(user)
	require.NoError(suite.T(), err)

	suite.authService.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = suite.authService.ParseToken(resp.Token)
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestTokenSignedWithOtherSecretRejected() {
	other := NewService(suite.db, []byte("another_secret"), time.Hour)
	user := &models.User{ID: "u-1", Pseudonym: "spy"}

	resp, err := other.IssueToken(user)
	require.NoError(suite.T(), err)

	_, err = suite.authService.ParseToken(resp.Token)
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestChangePassword() {
	resp, err := suite.authService.Register(suite.ctx, RegisterRequest{Pseudonym: "wren", Password: "password123"})
	require.NoError(suite.T(), err)

	err = suite.authService.ChangePassword(suite.ctx, resp.User.ID, "bad", "newpassword1")
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)

	require.NoError(suite.T(), suite.authService.ChangePassword(suite.ctx, resp.User.ID, "password123", "newpassword1"))
	_, err = suite.authService.Login(suite.ctx, LoginRequest{Identifier: "wren", Password: "newpassword1"})
	assert.NoError(suite.T(), err)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
