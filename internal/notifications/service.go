// Package notifications stores typed per-user events and pushes them to
// connected clients.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MessageType is the websocket event carrying a new notification
const MessageType = "notification.new"

// Pusher delivers realtime events to a user's open connections
type Pusher interface {
	Push(userID, msgType string, payload interface{})
}

// Event describes a notification to emit
type Event struct {
	UserID     string
	ActorID    string
	Type       models.NotificationType
	EntityType string
	EntityID   string
	Message    string
}

// View is a notification with its actor projected for display
type View struct {
	models.Notification
	Actor *models.PublicUser `json:"actor,omitempty"`
}

// Service handles notification storage and delivery
type Service struct {
	db     *gorm.DB
	pusher Pusher
	now    func() time.Time
	pick   func(n int) int
}

func NewService(db *gorm.DB, pusher Pusher) *Service {
	return &Service{db: db, pusher: pusher, now: time.Now, pick: rand.IntN}
}

// SetPusher attaches the realtime hub after construction
func (s *Service) SetPusher(p Pusher) {
	s.pusher = p
}

// Emit stores and pushes a notification. Failures are logged, never returned:
// a missed notification must not fail the action that caused it.
func (s *Service) Emit(ctx context.Context, e Event) *models.Notification {
	if e.UserID == "" || e.UserID == e.ActorID {
		return nil
	}
	n := &models.Notification{
		UserID:     e.UserID,
		Type:       e.Type,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Message:    e.Message,
	}
	if e.ActorID != "" {
		actor := e.ActorID
		n.ActorID = &actor
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		logger.Log.Warn("Failed to store notification",
			zap.String("user_id", e.UserID),
			zap.String("type", string(e.Type)),
			zap.Error(err))
		return nil
	}
	metrics.App().NotificationsSent.WithLabelValues(string(e.Type)).Inc()
	s.push(ctx, n)
	return n
}

func (s *Service) push(ctx context.Context, n *models.Notification) {
	if s.pusher == nil {
		return
	}
	view := View{Notification: *n}
	if n.ActorID != nil {
		var actor models.User
		if err := s.db.WithContext(ctx).First(&actor, "id = ?", *n.ActorID).Error; err == nil {
			p := actor.Public()
			view.Actor = &p
		}
	}
	s.pusher.Push(n.UserID, MessageType, view)
}

// EmitMentions notifies every @pseudonym in text, except the author
func (s *Service) EmitMentions(ctx context.Context, actorID, text, entityType, entityID string) int {
	names := util.ExtractMentions(text)
	if len(names) == 0 {
		return 0
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("LOWER(pseudonym) IN ? AND deleted_at IS NULL AND disabled = ?", lowered, false).
		Find(&users).Error; err != nil {
		logger.Log.Warn("Failed to resolve mentions", zap.Error(err))
		return 0
	}

	sent := 0
	for _, u := range users {
		if u.ID == actorID {
			continue
		}
		if s.Emit(ctx, Event{
			UserID:     u.ID,
			ActorID:    actorID,
			Type:       models.NotifyMention,
			EntityType: entityType,
			EntityID:   entityID,
			Message:    "mentioned you",
		}) != nil {
			sent++
		}
	}
	return sent
}

// ListResult is one page of notifications
type ListResult struct {
	Items       []View `json:"notifications"`
	UnreadCount int64  `json:"unread_count"`
	HasMore     bool   `json:"has_more"`
}

// List returns newest-first notifications for userID
func (s *Service) List(ctx context.Context, userID string, limit, offset int) (*ListResult, error) {
	db := s.db.WithContext(ctx)

	var rows []models.Notification
	if err := db.Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit + 1).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	var unread int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	items := make([]View, 0, len(rows))
	for _, n := range rows {
		v := View{Notification: n}
		if n.Actor != nil {
			p := n.Actor.Public()
			v.Actor = &p
		}
		items = append(items, v)
	}
	return &ListResult{Items: items, UnreadCount: unread, HasMore: hasMore}, nil
}

// MarkRead marks one of the user's notifications as read
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierrors.NotFound("notification")
	}
	return nil
}

// MarkAllRead marks everything read and returns how many changed
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

// Motivation returns today's unread motivation notification, creating one from
// a random active quote when none exists yet today. It returns nil when
// today's has already been read or there are no active quotes.
func (s *Service) Motivation(ctx context.Context, userID string) (*models.Notification, error) {
	db := s.db.WithContext(ctx)
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var existing models.Notification
	err := db.Where("user_id = ? AND type = ? AND created_at >= ?", userID, models.NotifyMotivation, dayStart).
		Order("created_at DESC").
		First(&existing).Error
	switch {
	case err == nil:
		if existing.Read {
			return nil, nil
		}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var count int64
	if err := db.Model(&models.Quote{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	var quote models.Quote
	if err := db.Where("active = ?", true).Order("id").Offset(s.pick(int(count))).First(&quote).Error; err != nil {
		return nil, err
	}

	msg := quote.Text
	if quote.Author != "" {
		msg = fmt.Sprintf("%s - %s", quote.Text, quote.Author)
	}
	n := &models.Notification{
		UserID:     userID,
		Type:       models.NotifyMotivation,
		EntityType: "quote",
		EntityID:   quote.ID,
		Message:    msg,
		CreatedAt:  now,
	}
	if err := db.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}
