package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/api/ws"},
		{"https://mask.example.com/", "wss://mask.example.com/api/ws"},
		{"wss://mask.example.com/v", "wss://mask.example.com/v/api/ws"},
	}
	for _, tt := range tests {
		cfg, err := DefaultConfig(tt.base)
		if err != nil {
			t.Fatalf("DefaultConfig(%q): %v", tt.base, err)
		}
		if cfg.URL != tt.want {
			t.Errorf("DefaultConfig(%q).URL = %q, want %q", tt.base, cfg.URL, tt.want)
		}
	}

	if _, err := DefaultConfig("ftp://nope"); err == nil {
		t.Error("ftp scheme should be rejected")
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{URL: "ws://localhost/api/ws"})

	if client.State() != StateDisconnected {
		t.Errorf("initial state should be disconnected, got %v", client.State())
	}
	if client.cfg.PingInterval != 30*time.Second {
		t.Errorf("ping interval default not applied: %v", client.cfg.PingInterval)
	}
	if err := client.Send(context.Background(), EventPing, nil); err == nil {
		t.Error("Send without a connection should fail")
	}
}

func TestOnUnsubscribe(t *testing.T) {
	client := NewClient(Config{})

	var a, b int
	offA := client.On(EventMessageNew, func(Envelope) { a++ })
	client.On(EventMessageNew, func(Envelope) { b++ })

	client.dispatch(Envelope{Type: EventMessageNew})
	offA()
	offA()
	client.dispatch(Envelope{Type: EventMessageNew})

	if a != 1 || b != 2 {
		t.Errorf("got a=%d b=%d, want a=1 b=2", a, b)
	}
}

func TestDispatchWildcard(t *testing.T) {
	client := NewClient(Config{})

	var seen []string
	client.On("", func(e Envelope) { seen = append(seen, e.Type) })
	client.On(EventNotification, func(e Envelope) { seen = append(seen, "specific") })

	client.dispatch(Envelope{Type: EventNotification})
	client.dispatch(Envelope{Type: EventMessageRead})

	want := []string{"specific", EventNotification, EventMessageRead}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("dispatch order = %v, want %v", seen, want)
	}
}

type messagePayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestRunReceivesEvents(t *testing.T) {
	gotAuth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		frame := `{"type":"message.new","payload":{"id":"m1","text":"hello"},"timestamp":"2026-01-02T03:04:05Z"}`
		_ = conn.Write(r.Context(), websocket.MessageText, []byte("not json"))
		_ = conn.Write(r.Context(), websocket.MessageText, []byte(frame))

		// wait for the client's echo before closing
		_, data, err := conn.Read(r.Context())
		if err == nil && strings.Contains(string(data), "message.read") {
			conn.Close(websocket.StatusNormalClosure, "bye")
		}
	}))
	defer srv.Close()

	cfg, err := DefaultConfig(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	cfg.ReconnectDelay = 0
	client := NewClient(cfg)

	received := make(chan messagePayload, 1)
	client.On(EventMessageNew, func(e Envelope) {
		var p messagePayload
		if err := e.Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		received <- p
		if err := client.Send(context.Background(), EventMessageRead, map[string]string{"conversation_id": "c1"}); err != nil {
			t.Errorf("send: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = client.Run(ctx, "tok")
	if err != nil {
		t.Fatalf("Run returned %v, want nil after a normal close", err)
	}

	if auth := <-gotAuth; auth != "Bearer tok" {
		t.Errorf("Authorization = %q", auth)
	}
	select {
	case p := <-received:
		if p.ID != "m1" || p.Text != "hello" {
			t.Errorf("payload = %+v", p)
		}
	default:
		t.Fatal("message.new was not delivered")
	}

	stats := client.Stats()
	if stats.MessagesReceived != 1 {
		t.Errorf("MessagesReceived = %d, want 1", stats.MessagesReceived)
	}
	if stats.MessagesSent != 1 {
		t.Errorf("MessagesSent = %d, want 1", stats.MessagesSent)
	}
	if client.IsConnected() {
		t.Error("client should be disconnected after Run returns")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	client := NewClient(Config{URL: "ws://127.0.0.1:1/api/ws", ReconnectDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := client.Run(ctx, "tok"); err != context.DeadlineExceeded {
		t.Errorf("Run = %v, want deadline exceeded", err)
	}
	if client.Stats().LastError == "" {
		t.Error("dial failure should be recorded")
	}
}
