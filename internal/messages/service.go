// Package messages implements one-to-one direct messages.
package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apierrors "github.com/maskapp/mask/internal/errors"
	"github.com/maskapp/mask/internal/logger"
	"github.com/maskapp/mask/internal/metrics"
	"github.com/maskapp/mask/internal/models"
	"github.com/maskapp/mask/internal/notifications"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MaxMessageLength = 2000

	// Websocket event types
	EventNew  = "message.new"
	EventRead = "message.read"
)

var (
	ErrRecipientNotFound = apierrors.NotFound("user")
	ErrSelfMessage       = apierrors.BadRequest("cannot message yourself")
)

type Pusher interface {
	Push(userID, msgType string, payload interface{})
}

type Notifier interface {
	Emit(ctx context.Context, e notifications.Event) *models.Notification
}

type Service struct {
	db       *gorm.DB
	pusher   Pusher
	notifier Notifier
	now      func() time.Time
}

func NewService(db *gorm.DB, pusher Pusher, notifier Notifier) *Service {
	return &Service{db: db, pusher: pusher, notifier: notifier, now: time.Now}
}

// SetPusher attaches the realtime hub after construction
func (s *Service) SetPusher(p Pusher) {
	s.pusher = p
}

// ConversationView is one row of the inbox
type ConversationView struct {
	ID            string            `json:"id"`
	With          models.PublicUser `json:"with"`
	LastMessage   *models.Message   `json:"last_message,omitempty"`
	UnreadCount   int64             `json:"unread_count"`
	LastMessageAt time.Time         `json:"last_message_at"`
}

// History is one page of a conversation, oldest first within the page
type History struct {
	ConversationID string           `json:"conversation_id,omitempty"`
	Messages       []models.Message `json:"messages"`
	HasMore        bool             `json:"has_more"`
}

// ReadReceipt is pushed to the sender when their messages are read
type ReadReceipt struct {
	ConversationID string    `json:"conversation_id"`
	ReaderID       string    `json:"reader_id"`
	ReadAt         time.Time `json:"read_at"`
}

func (s *Service) recipient(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.IsDeleted() || u.Disabled {
		return nil, ErrRecipientNotFound
	}
	return &u, nil
}

func (s *Service) conversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	ua, ub := models.ConversationPair(a, b)
	var conv models.Conversation
	err := s.db.WithContext(ctx).First(&conv, "user_a_id = ? AND user_b_id = ?", ua, ub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Send stores a message and pushes it to both participants
func (s *Service) Send(ctx context.Context, senderID, recipientID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, apierrors.ValidationError("text", "message text is required")
	case utf8.RuneCountInString(text) > MaxMessageLength:
		return nil, apierrors.ValidationError("text", fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
	case senderID == recipientID:
		return nil, ErrSelfMessage
	}
	if _, err := s.recipient(ctx, recipientID); err != nil {
		return nil, err
	}

	now := s.now()
	ua, ub := models.ConversationPair(senderID, recipientID)
	msg := &models.Message{SenderID: senderID, RecipientID: recipientID, Text: text, CreatedAt: now}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh := models.Conversation{UserAID: ua, UserBID: ub, LastMessageAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
			return err
		}
		var conv models.Conversation
		if err := tx.First(&conv, "user_a_id = ? AND user_b_id = ?", ua, ub).Error; err != nil {
			return err
		}
		msg.ConversationID = conv.ID
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&conv).Update("last_message_at", now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	metrics.App().MessagesSent.Inc()
	if s.pusher != nil {
		s.pusher.Push(recipientID, EventNew, msg)
		s.pusher.Push(senderID, EventNew, msg)
	}
	if s.notifier != nil {
		s.notifier.Emit(ctx, notifications.Event{
			UserID:     recipientID,
			ActorID:    senderID,
			Type:       models.NotifyMessage,
			EntityType: "conversation",
			EntityID:   msg.ConversationID,
			Message:    "sent you a message",
		})
	}
	logger.Log.Debug("Message sent", logger.WithUserID(senderID), zap.String("conversation_id", msg.ConversationID))
	return msg, nil
}

// History pages backwards from the newest message
func (s *Service) History(ctx context.Context, userID, otherID string, limit, offset int) (*History, error) {
	conv, err := s.conversation(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	h := &History{Messages: []models.Message{}}
	if conv == nil {
		return h, nil
	}
	h.ConversationID = conv.ID

	var rows []models.Message
	err = s.db.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("created_at DESC").
		Limit(limit + 1).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) > limit {
		h.HasMore = true
		rows = rows[:limit]
	}
	for i := len(rows) - 1; i >= 0; i-- {
		h.Messages = append(h.Messages, rows[i])
	}
	return h, nil
}

// MarkRead marks everything otherID sent to userID as read
func (s *Service) MarkRead(ctx context.Context, userID, otherID string) (int64, error) {
	conv, err := s.conversation(ctx, userID, otherID)
	if err != nil || conv == nil {
		return 0, err
	}
	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", conv.ID, userID).
		Update("read_at", now)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 && s.pusher != nil {
		s.pusher.Push(otherID, EventRead, ReadReceipt{ConversationID: conv.ID, ReaderID: userID, ReadAt: now})
	}
	return res.RowsAffected, nil
}

// Conversations lists the user's threads, most recent first
func (s *Service) Conversations(ctx context.Context, userID string, limit, offset int) ([]ConversationView, bool, error) {
	db := s.db.WithContext(ctx)
	var convs []models.Conversation
	err := db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("last_message_at DESC").
		Limit(limit + 1).Offset(offset).
		Find(&convs).Error
	if err != nil {
		return nil, false, err
	}
	hasMore := len(convs) > limit
	if hasMore {
		convs = convs[:limit]
	}
	if len(convs) == 0 {
		return []ConversationView{}, false, nil
	}

	ids := make([]string, len(convs))
	others := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
		others[i] = c.Other(userID)
	}

	var users []models.User
	if err := db.Where("id IN ?", others).Find(&users).Error; err != nil {
		return nil, false, err
	}
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	type unreadRow struct {
		ConversationID string
		N              int64
	}
	var unread []unreadRow
	if err := db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ? AND recipient_id = ? AND read_at IS NULL", ids, userID).
		Group("conversation_id").
		Scan(&unread).Error; err != nil {
		return nil, false, err
	}
	unreadBy := make(map[string]int64, len(unread))
	for _, r := range unread {
		unreadBy[r.ConversationID] = r.N
	}

	out := make([]ConversationView, 0, len(convs))
	for _, c := range convs {
		v := ConversationView{
			ID:            c.ID,
			With:          byID[c.Other(userID)].Public(),
			UnreadCount:   unreadBy[c.ID],
			LastMessageAt: c.LastMessageAt,
		}
		var last models.Message
		if err := db.Where("conversation_id = ?", c.ID).Order("created_at DESC").Limit(1).Find(&last).Error; err == nil && last.ID != "" {
			v.LastMessage = &last
		}
		out = append(out, v)
	}
	return out, hasMore, nil
}
