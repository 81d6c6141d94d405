package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/notifications"
	"gorm.io/gorm"
)

// FriendRequestView is a pending request with the other party projected
type FriendRequestView struct {
	ID        string                     `json:"id"`
	From      models.PublicUser          `json:"from"`
	To        models.PublicUser          `json:"to"`
	Status    models.FriendRequestStatus `json:"status"`
	CreatedAt time.Time                  `json:"created_at"`
}

// between finds the request row in either direction
func (s *Service) between(ctx context.Context, a, b string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := s.db.WithContext(ctx).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Order("updated_at DESC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Service) friendship(ctx context.Context, viewerID, userID string) (string, error) {
	req, err := s.between(ctx, viewerID, userID)
	if err != nil || req == nil {
		return FriendNone, err
	}
	switch req.Status {
	case models.FriendRequestAccepted:
		return FriendAccepted, nil
	case models.FriendRequestPending:
		if req.FromID == viewerID {
			return FriendOutgoing, nil
		}
		return FriendIncoming, nil
	}
	return FriendNone, nil
}

// SendFriendRequest asks toID for friendship. When toID already asked
// fromID, the pending request is accepted instead.
func (s *Service) SendFriendRequest(ctx context.Context, fromID, toID string) (*models.FriendRequest, error) {
	if fromID == toID {
		return nil, ErrSelf
	}
	if _, err := s.live(ctx, toID); err != nil {
		return nil, err
	}

	existing, err := s.between(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch {
		case existing.Status == models.FriendRequestAccepted:
			return nil, ErrAlreadyFriends
		case existing.Status == models.FriendRequestPending && existing.FromID == fromID:
			return nil, ErrAlreadyPending
		case existing.Status == models.FriendRequestPending:
			return s.RespondFriendRequest(ctx, fromID, existing.ID, true)
		}
	}

	req := &models.FriendRequest{FromID: fromID, ToID: toID, Status: models.FriendRequestPending}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A declined request in the same direction is reopened
		res := tx.Model(&models.FriendRequest{}).
			Where("from_id = ? AND to_id = ?", fromID, toID).
			Updates(map[string]interface{}{"status": models.FriendRequestPending, "updated_at": s.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("from_id = ? AND to_id = ?", fromID, toID).First(req).Error
		}
		return tx.Create(req).Error
	})
	if err != nil {
		return nil, fmt.Errorf("send friend request: %w", err)
	}

	s.notify(ctx, notifications.Event{
		UserID:     toID,
		ActorID:    fromID,
		Type:       models.NotifyFriendRequest,
		EntityType: "friend_request",
		EntityID:   req.ID,
		Message:    "sent you a friend request",
	})
	return req, nil
}

// RespondFriendRequest accepts or declines a pending request addressed to userID
func (s *Service) RespondFriendRequest(ctx context.Context, userID, requestID string, accept bool) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := s.db.WithContext(ctx).First(&req, "id = ?", requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if req.ToID != userID || req.Status != models.FriendRequestPending {
		return nil, ErrRequestNotFound
	}

	status := models.FriendRequestDeclined
	if accept {
		status = models.FriendRequestAccepted
	}
	if err := s.db.WithContext(ctx).Model(&req).
		Updates(map[string]interface{}{"status": status, "updated_at": s.now()}).Error; err != nil {
		return nil, fmt.Errorf("respond friend request: %w", err)
	}
	req.Status = status

	if accept {
		s.notify(ctx, notifications.Event{
			UserID:     req.FromID,
			ActorID:    userID,
			Type:       models.NotifyFriendAccept,
			EntityType: "user",
			EntityID:   userID,
			Message:    "accepted your friend request",
		})
	}
	return &req, nil
}

// Unfriend ends an accepted friendship
func (s *Service) Unfriend(ctx context.Context, userID, otherID string) error {
	res := s.db.WithContext(ctx).
		Where("((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)) AND status = ?",
			userID, otherID, otherID, userID, models.FriendRequestAccepted).
		Delete(&models.FriendRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFriends
	}
	return nil
}

// Friends lists the users with an accepted request to or from userID
func (s *Service) Friends(ctx context.Context, userID string, limit, offset int) (*UserList, error) {
	var reqs []models.FriendRequest
	err := s.db.WithContext(ctx).
		Preload("From").Preload("To").
		Where("(from_id = ? OR to_id = ?) AND status = ?", userID, userID, models.FriendRequestAccepted).
		Order("updated_at DESC").
		Limit(limit + 1).Offset(offset).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(reqs))
	for _, r := range reqs {
		if r.FromID == userID {
			users = append(users, r.To)
		} else {
			users = append(users, r.From)
		}
	}
	return s.page(users, limit), nil
}

// IncomingRequests lists pending requests addressed to userID
func (s *Service) IncomingRequests(ctx context.Context, userID string) ([]FriendRequestView, error) {
	var reqs []models.FriendRequest
	err := s.db.WithContext(ctx).
		Preload("From").Preload("To").
		Where("to_id = ? AND status = ?", userID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	out := make([]FriendRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, FriendRequestView{
			ID:        r.ID,
			From:      r.From.Public(),
			To:        r.To.Public(),
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
