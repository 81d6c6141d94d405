// Package social implements profiles, follows and friendships.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/notifications"
	"github.com/maskapp/mask/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = apierrors.NotFound("user")
	ErrRequestNotFound = apierrors.NotFound("friend request")
	ErrNotFriends      = apierrors.NotFound("friendship")
	ErrSelf            = apierrors.BadRequest("cannot do that to yourself")
	ErrPseudonymTaken  = apierrors.Conflict("pseudonym")
	ErrAlreadyFriends  = apierrors.Conflict("friendship")
	ErrAlreadyPending  = apierrors.Conflict("friend request")
)

// Friendship states reported on a profile
const (
	FriendNone     = "none"
	FriendAccepted = "friends"
	FriendOutgoing = "pending_outgoing"
	FriendIncoming = "pending_incoming"
)

// Notifier emits user notifications
type Notifier interface {
	Emit(ctx context.Context, e notifications.Event) *models.Notification
}

// Service implements the social graph
type Service struct {
	db       *gorm.DB
	users    repository.UserRepository
	notifier Notifier
	now      func() time.Time
}

func NewService(db *gorm.DB, users repository.UserRepository, notifier Notifier) *Service {
	return &Service{db: db, users: users, notifier: notifier, now: time.Now}
}

func (s *Service) notify(ctx context.Context, e notifications.Event) {
	if s.notifier != nil {
		s.notifier.Emit(ctx, e)
	}
}

// Profile is the public view of a user
type Profile struct {
	models.PublicUser
	Bio            string    `json:"bio,omitempty"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
	IsFollowing    bool      `json:"is_following"`
	Friendship     string    `json:"friendship"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserList is one page of user projections
type UserList struct {
	Users   []models.PublicUser `json:"users"`
	HasMore bool                `json:"has_more"`
}

func (s *Service) live(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.IsDeleted() {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Profile returns a user's profile as seen by viewerID. Deleted accounts
// still resolve so old content can link to them, but carry no details.
func (s *Service) Profile(ctx context.Context, viewerID, userID string) (*Profile, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	p := &Profile{PublicUser: u.Public(), Friendship: FriendNone, CreatedAt: u.CreatedAt}
	if u.IsDeleted() {
		return p, nil
	}
	p.Bio = u.Bio
	p.FollowersCount = u.FollowersCount
	p.FollowingCount = u.FollowingCount

	if viewerID != "" && viewerID != userID {
		if p.IsFollowing, err = s.users.IsFollowing(ctx, viewerID, userID); err != nil {
			return nil, err
		}
		if p.Friendship, err = s.friendship(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UpdateProfileInput is the body of PATCH /api/users/me
type UpdateProfileInput struct {
	Pseudonym *string `json:"pseudonym" binding:"omitempty,min=3,max=30,alphanum"`
	Bio       *string `json:"bio" binding:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=512"`
}

// UpdateMe applies a partial profile update
func (s *Service) UpdateMe(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	if _, err := s.live(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Pseudonym != nil {
		name := strings.TrimSpace(*in.Pseudonym)
		if strings.HasPrefix(strings.ToLower(name), "deleted") {
			return nil, apierrors.ValidationError("pseudonym", "pseudonym is reserved")
		}
		existing, err := s.users.GetUserByPseudonym(ctx, name)
		if err == nil && existing.ID != userID {
			return nil, ErrPseudonymTaken
		} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		fields["pseudonym"] = name
	}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	return s.users.GetUser(ctx, userID)
}

// DeleteMe soft-deletes the caller. Their posts and comments remain and
// render as "Deleted user".
func (s *Service) DeleteMe(ctx context.Context, userID string) error {
	if _, err := s.live(ctx, userID); err != nil {
		return err
	}
	if err := s.users.SoftDelete(ctx, userID, s.now().UTC()); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	// Pending requests can no longer be answered
	if err := s.db.WithContext(ctx).
		Where("(from_id = ? OR to_id = ?) AND status = ?", userID, userID, models.FriendRequestPending).
		Delete(&models.FriendRequest{}).Error; err != nil {
		logger.Log.Warn("Failed to drop pending friend requests", logger.WithUserID(userID), zap.Error(err))
	}
	logger.Log.Info("Account deleted", logger.WithUserID(userID))
	return nil
}

// Follow makes followerID follow targetID. Following twice is a no-op.
func (s *Service) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return ErrSelf
	}
	if _, err := s.live(ctx, targetID); err != nil {
		return err
	}
	created, err := s.users.CreateFollow(ctx, followerID, targetID)
	if err != nil {
		return err
	}
	if created {
		s.notify(ctx, notifications.Event{
			UserID:     targetID,
			ActorID:    followerID,
			Type:       models.NotifyFollow,
			EntityType: "user",
			EntityID:   followerID,
			Message:    "started following you",
		})
	}
	return nil
}

// Unfollow removes the follow edge if present
func (s *Service) Unfollow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return ErrSelf
	}
	_, err := s.users.DeleteFollow(ctx, followerID, targetID)
	return err
}

func (s *Service) page(users []*models.User, limit int) *UserList {
	out := &UserList{Users: make([]models.PublicUser, 0, len(users))}
	if len(users) > limit {
		out.HasMore = true
		users = users[:limit]
	}
	for _, u := range users {
		out.Users = append(out.Users, u.Public())
	}
	return out
}

func (s *Service) Followers(ctx context.Context, userID string, limit, offset int) (*UserList, error) {
	users, err := s.users.GetFollowers(ctx, userID, limit+1, offset)
	if err != nil {
		return nil, err
	}
	return s.page(users, limit), nil
}

func (s *Service) Following(ctx context.Context, userID string, limit, offset int) (*UserList, error) {
	users, err := s.users.GetFollowing(ctx, userID, limit+1, offset)
	if err != nil {
		return nil, err
	}
	return s.page(users, limit), nil
}
