package websocket

import (
	"context"
	"fmt"

	"github.com/maskapp/mask/internal/cache"
	"github.com/maskapp/mask/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RelayChannel is the redis pub/sub channel shared by every instance
const RelayChannel = "mask:ws:events"

// Relay forwards pushes between server instances over redis pub/sub, so a
// user connected to another instance still receives their events.
type Relay struct {
	hub    *Hub
	rc     *cache.RedisClient
	origin string
}

type envelope struct {
	Origin  string   `json:"origin"`
	UserID  string   `json:"user_id"`
	Message *Message `json:"message"`
}

// NewRelay returns nil when redis is not configured
func NewRelay(hub *Hub, rc *cache.RedisClient, instanceID string) *Relay {
	if !rc.Enabled() {
		return nil
	}
	return &Relay{hub: hub, rc: rc, origin: instanceID}
}

// Publish announces a push to the other instances
func (r *Relay) Publish(ctx context.Context, userID string, msg *Message) error {
	data, err := json.Marshal(envelope{Origin: r.origin, UserID: userID, Message: msg})
	if err != nil {
		return fmt.Errorf("encode relay envelope: %w", err)
	}
	return r.rc.Publish(ctx, RelayChannel, data)
}

// Run delivers pushes published by other instances to local clients until
// ctx is done. ready, if not nil, is closed once the subscription is live.
func (r *Relay) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := r.rc.Raw().Subscribe(ctx, RelayChannel)
	defer sub.Close()

	// Wait for the subscribe confirmation
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", RelayChannel, err)
	}
	if ready != nil {
		close(ready)
	}
	logger.Log.Info("WebSocket relay subscribed", zap.String("instance", r.origin))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(m)
		}
	}
}

func (r *Relay) deliver(m *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
		logger.Log.Warn("Dropping malformed relay message", zap.Error(err))
		return
	}
	if env.Origin == r.origin || env.Message == nil || env.UserID == "" {
		return
	}
	r.hub.SendToUser(env.UserID, env.Message)
}
