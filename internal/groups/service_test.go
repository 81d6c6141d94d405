package groups

import (
	"context"
	"os"
	"testing"

	"github.com/maskapp/mask/internal/database"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

type captureNotifier struct {
	events []notifications.Event
}

func (c *captureNotifier) Emit(_ context.Context, e notifications.Event) *models.Notification {
	c.events = append(c.events, e)
	return nil
}

type GroupServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	notifier *captureNotifier
	svc      *Service
	ctx      context.Context

	owner  *models.User
	joiner *models.User
	mod    *models.User
}

func (s *GroupServiceTestSuite) SetupTest() {
	db, err := database.OpenInMemory()
	require.NoError(s.T(), err)
	s.db = db
	s.notifier = &captureNotifier{}
	s.svc = NewService(db, s.notifier)
	s.ctx = context.Background()
	s.owner = s.user("owner", models.RoleUser)
	s.joiner = s.user("joiner", models.RoleUser)
	s.mod = s.user("mod", models.RoleModerator)
}

func (s *GroupServiceTestSuite) user(name string, role models.Role) *models.User {
	u := &models.User{Pseudonym: name, PasswordHash: "x", Role: role}
	require.NoError(s.T(), s.db.Create(u).Error)
	return u
}

func (s *GroupServiceTestSuite) create(privacy models.GroupPrivacy) *GroupView {
	g, err := s.svc.Create(s.ctx, s.owner.ID, CreateInput{Name: "Knitters", Privacy: privacy})
	require.NoError(s.T(), err)
	return g
}

func (s *GroupServiceTestSuite) count(groupID string) int {
	var g models.Group
	require.NoError(s.T(), s.db.First(&g, "id = ?", groupID).Error)
	return g.MemberCount
}

func (s *GroupServiceTestSuite) TestCreateMakesOwnerAdmin() {
	g := s.create("")
	assert.Equal(s.T(), models.GroupPublic, g.Privacy)
	require.NotNil(s.T(), g.Membership)
	assert.Equal(s.T(), models.GroupRoleAdmin, g.Membership.Role)
	assert.Equal(s.T(), 1, s.count(g.ID))
}

func (s *GroupServiceTestSuite) TestJoinPublicIsImmediate() {
	g := s.create(models.GroupPublic)

	m, err := s.svc.Join(s.ctx, s.joiner.ID, g.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.MembershipActive, m.Status)
	assert.Equal(s.T(), 2, s.count(g.ID))

	// Joining twice changes nothing
	_, err = s.svc.Join(s.ctx, s.joiner.ID, g.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, s.count(g.ID))
	assert.Empty(s.T(), s.notifier.events)

	require.NoError(s.T(), s.svc.Leave(s.ctx, s.joiner.ID, g.ID))
	assert.Equal(s.T(), 1, s.count(g.ID))
	assert.ErrorIs(s.T(), s.svc.Leave(s.ctx, s.joiner.ID, g.ID), ErrMemberNotFound)
	assert.ErrorIs(s.T(), s.svc.Leave(s.ctx, s.owner.ID, g.ID), ErrOwnerLeave)
}

func (s *GroupServiceTestSuite) TestJoinPrivateNeedsApproval() {
	g := s.create(models.GroupPrivate)

	m, err := s.svc.Join(s.ctx, s.joiner.ID, g.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.MembershipPending, m.Status)
	assert.Equal(s.T(), 1, s.count(g.ID))
	require.Len(s.T(), s.notifier.events, 1)
	assert.Equal(s.T(), s.owner.ID, s.notifier.events[0].UserID)
	assert.Equal(s.T(), models.NotifyGroupRequest, s.notifier.events[0].Type)

	// Pending members cannot read the roster or approve themselves
	_, _, err = s.svc.Members(s.ctx, s.joiner.ID, g.ID, "", 10, 0)
	assert.ErrorIs(s.T(), err, ErrMembersOnly)
	_, err = s.svc.Approve(s.ctx, s.joiner.ID, g.ID, s.joiner.ID)
	assert.ErrorIs(s.T(), err, ErrNotAdmin)

	pending, _, err := s.svc.Members(s.ctx, s.owner.ID, g.ID, models.MembershipPending, 10, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), pending, 1)
	assert.Equal(s.T(), s.joiner.ID, pending[0].User.ID)

	_, err = s.svc.Approve(s.ctx, s.owner.ID, g.ID, s.joiner.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, s.count(g.ID))

	_, err = s.svc.Approve(s.ctx, s.owner.ID, g.ID, s.joiner.ID)
	assert.ErrorIs(s.T(), err, ErrMemberNotFound)

	members, hasMore, err := s.svc.Members(s.ctx, s.joiner.ID, g.ID, "", 1, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), members, 1)
	assert.True(s.T(), hasMore)
}

func (s *GroupServiceTestSuite) TestUpdateRequiresGroupAdmin() {
	g := s.create(models.GroupPublic)
	name := "Crocheters"

	_, err := s.svc.Update(s.ctx, s.joiner.ID, g.ID, UpdateInput{Name: &name})
	assert.ErrorIs(s.T(), err, ErrNotAdmin)

	updated, err := s.svc.Update(s.ctx, s.owner.ID, g.ID, UpdateInput{Name: &name})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Crocheters", updated.Name)

	// Staff can moderate any group
	desc := "moderated"
	updated, err = s.svc.Update(s.ctx, s.mod.ID, g.ID, UpdateInput{Description: &desc})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "moderated", updated.Description)
}

func (s *GroupServiceTestSuite) TestDisabledGroupHiddenFromNonStaff() {
	g := s.create(models.GroupPublic)
	require.NoError(s.T(), s.db.Model(&models.Group{}).Where("id = ?", g.ID).Update("disabled", true).Error)

	_, err := s.svc.Get(s.ctx, s.joiner.ID, g.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
	_, err = s.svc.Join(s.ctx, s.joiner.ID, g.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	view, err := s.svc.Get(s.ctx, s.mod.ID, g.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), view.Disabled)

	mine, err := s.svc.Mine(s.ctx, s.owner.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), mine)
}

func TestGroupServiceTestSuite(t *testing.T) {
	suite.Run(t, new(GroupServiceTestSuite))
}
