package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(topics ...string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		Topics: topics,
		Send:   make(chan []byte, 8),
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	client := newTestClient("user:a")

	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount("user:a") != 1 {
		t.Errorf("expected 1 subscriber on user:a, got %d", hub.TopicCount("user:a"))
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TopicCount("user:a") != 0 {
		t.Errorf("expected 0 subscribers, got %d", hub.TopicCount("user:a"))
	}

	// Send channel must be closed after unregister.
	select {
	case _, ok := <-client.Send:
		if ok {
			t.Error("expected Send channel to be closed")
		}
	default:
		t.Error("expected Send channel to be closed, but it blocks")
	}
}

func TestHub_UnregisterTwice(t *testing.T) {
	hub := NewHub()
	client := newTestClient("user:a")
	hub.Register(client)
	hub.Unregister(client)
	hub.Unregister(client) // must not panic on double close
}

func TestHub_BroadcastToTopic(t *testing.T) {
	hub := NewHub()
	a := newTestClient("user:a")
	b := newTestClient("user:b")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast("user:a", Event{Type: "notification.created", Topic: "user:a", Timestamp: time.Now()})

	select {
	case msg := <-a.Send:
		var evt Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if evt.Type != "notification.created" {
			t.Errorf("expected notification.created, got %s", evt.Type)
		}
	default:
		t.Fatal("expected a to receive the event")
	}

	select {
	case <-b.Send:
		t.Error("b should not receive events for user:a")
	default:
	}
}

func TestHub_BroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	client := &Client{ID: "c", Topics: []string{"user:a"}, Send: make(chan []byte)} // unbuffered
	hub.Register(client)

	// Must not block even though nobody reads.
	done := make(chan struct{})
	go func() {
		hub.Broadcast("user:a", Event{Type: "x", Topic: "user:a"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full client buffer")
	}
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	client := newTestClient("user:a")
	hub.Register(client)

	err := hub.Publish(context.Background(), Event{Type: "notification.count", Topic: "user:a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-client.Send:
	default:
		t.Error("expected client to receive published event")
	}
}

func TestUserTopic(t *testing.T) {
	uid := uuid.New()
	if got := UserTopic(uid); got != "user:"+uid.String() {
		t.Errorf("unexpected topic %s", got)
	}
}
