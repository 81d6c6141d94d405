// Package websocket receives live events (new direct messages, read receipts
// and notifications) from the server's /api/ws endpoint.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/maskapp/mask/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event types pushed by the server
const (
	EventMessageNew   = "message.new"
	EventMessageRead  = "message.read"
	EventTyping       = "message.typing"
	EventNotification = "notification.new"
	EventError        = "error"
	EventPing         = "ping"
	EventPong         = "pong"
)

// Envelope is the frame format in both directions
type Envelope struct {
	Type      string              `json:"type"`
	Payload   jsoniter.RawMessage `json:"payload,omitempty"`
	ID        string              `json:"id,omitempty"`
	ReplyTo   string              `json:"reply_to,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(e.Payload, v)
}

type Config struct {
	// URL is the full ws:// or wss:// endpoint
	URL          string
	PingInterval time.Duration
	// ReconnectDelay is the fixed wait between dial attempts. Zero disables
	// reconnecting: Run returns when the connection drops.
	ReconnectDelay time.Duration
	ReadLimit      int64
}

// DefaultConfig derives the websocket endpoint from the REST base URL
func DefaultConfig(baseURL string) (Config, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return Config{}, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return Config{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws"
	return Config{
		URL:            u.String(),
		PingInterval:   30 * time.Second,
		ReconnectDelay: 5 * time.Second,
		ReadLimit:      1 << 20,
	}, nil
}

type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

type Stats struct {
	MessagesReceived int64
	MessagesSent     int64
	Reconnects       int
	LastError        string
	ConnectedAt      time.Time
}

type listener struct {
	id int
	fn func(Envelope)
}

// Client is one logical connection; Run owns the socket.
type Client struct {
	cfg   Config
	state atomic.Int32

	mu   sync.Mutex
	conn *websocket.Conn

	listenersMu sync.RWMutex
	listeners   map[string][]listener
	nextID      int

	statsMu sync.Mutex
	stats   Stats
}

func NewClient(cfg Config) *Client {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Client{cfg: cfg, listeners: make(map[string][]listener)}
}

// On subscribes to an event type; "" receives every event. The returned
// func unsubscribes.
func (c *Client) On(eventType string, fn func(Envelope)) func() {
	c.listenersMu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[eventType] = append(c.listeners[eventType], listener{id: id, fn: fn})
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		ls := c.listeners[eventType]
		for i, l := range ls {
			if l.id == id {
				c.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

func (c *Client) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Run connects with token and dispatches events until ctx is cancelled. With
// a reconnect delay configured, dropped connections are redialled.
func (c *Client) Run(ctx context.Context, token string) error {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.statsMu.Lock()
			c.stats.Reconnects++
			c.statsMu.Unlock()
		}
		err := c.session(ctx, token)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.recordError(err)
			logger.Warn("websocket disconnected", "error", err)
		}
		if c.cfg.ReconnectDelay <= 0 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

func (c *Client) session(ctx context.Context, token string) error {
	c.state.Store(int32(StateConnecting))
	defer c.state.Store(int32(StateDisconnected))

	conn, _, err := websocket.Dial(ctx, c.cfg.URL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	if c.cfg.ReadLimit > 0 {
		conn.SetReadLimit(c.cfg.ReadLimit)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.state.Store(int32(StateConnected))
	c.statsMu.Lock()
	c.stats.ConnectedAt = time.Now()
	c.statsMu.Unlock()
	logger.Debug("websocket connected", "url", c.cfg.URL)

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.pingLoop(sessCtx, conn)

	for {
		_, data, err := conn.Read(sessCtx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Debug("dropping malformed frame", "error", err)
			continue
		}
		c.statsMu.Lock()
		c.stats.MessagesReceived++
		c.statsMu.Unlock()
		c.dispatch(env)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}

// dispatch runs listeners in the read goroutine so events keep their order
func (c *Client) dispatch(env Envelope) {
	c.listenersMu.RLock()
	specific := append([]listener(nil), c.listeners[env.Type]...)
	all := append([]listener(nil), c.listeners[""]...)
	c.listenersMu.RUnlock()

	for _, l := range specific {
		l.fn(env)
	}
	for _, l := range all {
		l.fn(env)
	}
}

// Send writes one frame on the live connection
func (c *Client) Send(ctx context.Context, eventType string, payload interface{}) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}

	env := Envelope{Type: eventType, Timestamp: time.Now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = raw
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return err
	}
	c.statsMu.Lock()
	c.stats.MessagesSent++
	c.statsMu.Unlock()
	return nil
}

func (c *Client) recordError(err error) {
	c.statsMu.Lock()
	c.stats.LastError = err.Error()
	c.statsMu.Unlock()
}
