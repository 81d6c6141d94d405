package pages

import (
	"context"
	"os"
	"testing"

	"github.com/maskapp/mask/internal/database"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	os.Exit(m.Run())
}

func setup(t *testing.T) (*gorm.DB, *Service, *models.User, *models.User) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	owner := &models.User{Pseudonym: "owner", PasswordHash: "x"}
	fan := &models.User{Pseudonym: "fan", PasswordHash: "x"}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(fan).Error)
	return db, NewService(db), owner, fan
}

func TestCreateAndFollow(t *testing.T) {
	db, svc, owner, fan := setup(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, owner.ID, CreateInput{Name: " Daily Facts "})
	require.NoError(t, err)
	assert.Equal(t, "Daily Facts", page.Name)
	assert.True(t, page.IsAdmin)

	require.NoError(t, svc.Follow(ctx, fan.ID, page.ID))
	require.NoError(t, svc.Follow(ctx, fan.ID, page.ID))

	view, err := svc.Get(ctx, fan.ID, page.ID)
	require.NoError(t, err)
	assert.True(t, view.Following)
	assert.False(t, view.IsAdmin)
	assert.Equal(t, 1, view.FollowerCount)

	require.NoError(t, svc.Unfollow(ctx, fan.ID, page.ID))
	require.NoError(t, svc.Unfollow(ctx, fan.ID, page.ID))
	var p models.Page
	require.NoError(t, db.First(&p, "id = ?", page.ID).Error)
	assert.Zero(t, p.FollowerCount)
}

func TestUpdateAndAddAdmin(t *testing.T) {
	_, svc, owner, fan := setup(t)
	ctx := context.Background()
	page, err := svc.Create(ctx, owner.ID, CreateInput{Name: "Recipes"})
	require.NoError(t, err)

	name := "Better Recipes"
	_, err = svc.Update(ctx, fan.ID, page.ID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.ErrorIs(t, svc.AddAdmin(ctx, fan.ID, page.ID, fan.ID), ErrNotAdmin)

	require.NoError(t, svc.AddAdmin(ctx, owner.ID, page.ID, fan.ID))
	require.NoError(t, svc.AddAdmin(ctx, owner.ID, page.ID, fan.ID))
	assert.ErrorIs(t, svc.AddAdmin(ctx, owner.ID, page.ID, "nobody"), ErrUserNotFound)

	updated, err := svc.Update(ctx, fan.ID, page.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Better Recipes", updated.Name)

	admins, err := svc.Admins(ctx, page.ID)
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}

func TestDisabledPageHidden(t *testing.T) {
	db, svc, owner, fan := setup(t)
	ctx := context.Background()
	page, err := svc.Create(ctx, owner.ID, CreateInput{Name: "Spam"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Page{}).Where("id = ?", page.ID).Update("disabled", true).Error)

	_, err = svc.Get(ctx, fan.ID, page.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Follow(ctx, fan.ID, page.ID), ErrNotFound)

	admin := &models.User{Pseudonym: "admin", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(admin).Error)
	view, err := svc.Get(ctx, admin.ID, page.ID)
	require.NoError(t, err)
	assert.True(t, view.Disabled)
}
