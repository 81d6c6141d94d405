// Package repository holds the user queries shared by the social graph,
// search and admin services.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maskapp/mask/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
)

// UserRepository handles database operations for users and follow edges
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByPseudonym(ctx context.Context, pseudonym string) (*models.User, error)
	GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error)
	UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string, at time.Time) error
	Restore(ctx context.Context, userID, pseudonym string) error

	SearchUsers(ctx context.Context, query string, limit, offset int) ([]*models.User, error)
	ListUsers(ctx context.Context, query string, limit, offset int) ([]*models.User, int64, error)

	GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
	GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error)
	CreateFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	DeleteFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)

	GetTotalUserCount(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// DeletedPseudonym is the pseudonym a soft-deleted account is renamed to
func DeletedPseudonym(userID string) string {
	suffix := strings.ReplaceAll(userID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return "deleted-" + suffix
}

// active excludes soft-deleted and disabled accounts
func active(db *gorm.DB) *gorm.DB {
	return db.Where("users.deleted_at IS NULL AND users.disabled = ? AND users.pseudonym NOT LIKE ?", false, "deleted-%")
}

func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, err
}

func (r *userRepository) GetUserByPseudonym(ctx context.Context, pseudonym string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(pseudonym) = LOWER(?)", pseudonym).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return &user, err
}

func (r *userRepository) GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error) {
	var users []*models.User
	if len(userIDs) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error
	return users, err
}

// UpdateFields applies a partial profile update
func (r *userRepository) UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" || len(fields) == 0 {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SoftDelete marks the account deleted and rewrites its pseudonym. Posts and
// comments stay in place and render as "Deleted user".
func (r *userRepository) SoftDelete(ctx context.Context, userID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND deleted_at IS NULL", userID).
		Updates(map[string]interface{}{
			"deleted_at": at,
			"pseudonym":  DeletedPseudonym(userID),
			"avatar_url": "",
			"bio":        "",
			"email":      nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Restore clears the deletion mark and gives the account a pseudonym back
func (r *userRepository) Restore(ctx context.Context, userID, pseudonym string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"deleted_at": nil, "pseudonym": pseudonym})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SearchUsers matches live accounts by pseudonym substring
func (r *userRepository) SearchUsers(ctx context.Context, query string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.WithContext(ctx).
		Scopes(active).
		Where("LOWER(pseudonym) LIKE ?", pattern).
		Order("followers_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

// ListUsers is the admin listing: every account, deleted or not
func (r *userRepository) ListUsers(ctx context.Context, query string, limit, offset int) ([]*models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(pseudonym) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []*models.User
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

// GetFollowers gets users following the given user
func (r *userRepository) GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

// GetFollowing gets users that the given user follows
func (r *userRepository) GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

// CreateFollow inserts the edge and bumps both counters. It reports false
// when the edge already existed.
func (r *userRepository) CreateFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
		if res.Error != nil {
			return fmt.Errorf("create follow: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return bumpFollowCounts(tx, followerID, followeeID, 1)
	})
	return created, err
}

// DeleteFollow removes the edge and decrements both counters
func (r *userRepository) DeleteFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{})
		if res.Error != nil {
			return fmt.Errorf("delete follow: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return bumpFollowCounts(tx, followerID, followeeID, -1)
	})
	return removed, err
}

func bumpFollowCounts(tx *gorm.DB, followerID, followeeID string, delta int) error {
	if err := bumpCounter(tx, followerID, "following_count", delta); err != nil {
		return err
	}
	return bumpCounter(tx, followeeID, "followers_count", delta)
}

// bumpCounter adjusts a user counter by one without going below zero
func bumpCounter(tx *gorm.DB, userID, column string, delta int) error {
	q := tx.Model(&models.User{}).Where("id = ?", userID)
	if delta < 0 {
		return q.Where(column+" > 0").UpdateColumn(column, gorm.Expr(column+" - 1")).Error
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

func (r *userRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

// GetTotalUserCount counts accounts that are not soft-deleted
func (r *userRepository) GetTotalUserCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count, err
}
