package api

import (
	"context"
	"net/http"

	"github.com/maskapp/mask/pkg/wellness"
)

// Notifications

func (a *API) Notifications(ctx context.Context, page, limit int) (*NotificationList, error) {
	var out NotificationList
	if err := a.do(ctx, http.MethodGet, "/api/notifications"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) MarkNotificationRead(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodPost, "/api/notifications/"+escape(id)+"/read", nil, nil)
}

func (a *API) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	var out struct {
		Marked int64 `json:"marked"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, &out); err != nil {
		return 0, err
	}
	return out.Marked, nil
}

// Motivation returns today's motivational notification, or nil once it has
// been read.
func (a *API) Motivation(ctx context.Context) (*Notification, error) {
	var out struct {
		Notification *Notification `json:"notification"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/notifications/motivation", nil, &out); err != nil {
		return nil, err
	}
	return out.Notification, nil
}

// Messages

func (a *API) Conversations(ctx context.Context, page, limit int) ([]Conversation, bool, error) {
	var out struct {
		Conversations []Conversation `json:"conversations"`
		HasMore       bool           `json:"has_more"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/messages/conversations"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, false, err
	}
	return out.Conversations, out.HasMore, nil
}

func (a *API) MessageHistory(ctx context.Context, userID string, page, limit int) (*MessageHistory, error) {
	var out MessageHistory
	if err := a.do(ctx, http.MethodGet, "/api/messages/"+escape(userID)+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) SendMessage(ctx context.Context, userID, text string) (*Message, error) {
	var out struct {
		Message Message `json:"message"`
	}
	body := map[string]string{"text": text}
	if err := a.do(ctx, http.MethodPost, "/api/messages/"+escape(userID), body, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

func (a *API) MarkConversationRead(ctx context.Context, userID string) (int64, error) {
	var out struct {
		Marked int64 `json:"marked"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/messages/"+escape(userID)+"/read", nil, &out); err != nil {
		return 0, err
	}
	return out.Marked, nil
}

// WellnessPolicy fetches the server's usage thresholds
func (a *API) WellnessPolicy(ctx context.Context) (wellness.Policy, string, error) {
	var wire wellness.Wire
	if err := a.do(ctx, http.MethodGet, "/api/config/wellness", nil, &wire); err != nil {
		return wellness.Policy{}, "", err
	}
	return wire.Policy(), wire.Hash, nil
}
