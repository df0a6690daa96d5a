package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	userID := uuid.New()
	channel := UserChannel(userID)

	clientA := hub.NewSSEClient(userID)
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventSecretSantaDrawStarted, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventSecretSantaDrawCancelled, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventSecretSantaDrawStarted {
		t.Fatalf("first event: want=%s got=%s", SSEEventSecretSantaDrawStarted, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventSecretSantaDrawCancelled {
		t.Fatalf("second event: want=%s got=%s", SSEEventSecretSantaDrawCancelled, got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: want=0 got=%d", n)
	}
	// no subscribers left, must not panic on the closed channel
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventSecretSantaDrawStarted})

	clientB := hub.NewSSEClient(userID)
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventSecretSantaDrawStarted})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventSecretSantaDrawStarted {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventSecretSantaDrawStarted, got.Event)
	}
}

func TestSSEHubChannelsAreIsolated(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	a := hub.NewSSEClient(uuid.New())
	b := hub.NewSSEClient(uuid.New())
	hub.AddChannel(a, UserChannel(a.UserID))
	hub.AddChannel(b, UserChannel(b.UserID))

	hub.Broadcast(SSEMessage{Channel: UserChannel(a.UserID), Event: SSEEventSecretSantaDrawStarted})
	recvMessage(t, a.Outbound, time.Second)
	select {
	case msg := <-b.Outbound:
		t.Fatalf("client b received a message for a: %+v", msg)
	default:
	}

	hub.RemoveChannel(a, UserChannel(a.UserID))
	if n := hub.Subscribers(UserChannel(a.UserID)); n != 0 {
		t.Fatalf("subscribers: want=0 got=%d", n)
	}
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	c := hub.NewSSEClient(uuid.New())
	ch := UserChannel(c.UserID)
	hub.AddChannel(c, ch)
	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(SSEMessage{Channel: ch, Event: SSEEventSecretSantaDrawStarted})
	}
	if got := len(c.Outbound); got != outboundBuffer {
		t.Fatalf("buffered: want=%d got=%d", outboundBuffer, got)
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	c := hub.NewSSEClient(uuid.New())
	ch := UserChannel(c.UserID)
	hub.AddChannel(c, ch)
	hub.Broadcast(SSEMessage{Channel: ch, Event: SSEEventSecretSantaDrawStarted, Data: map[string]any{"event_title": "xmas"}})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, req, c)

	body := rec.Body.String()
	if !strings.Contains(body, "event: SecretSantaDrawStarted") || !strings.Contains(body, `"event_title":"xmas"`) {
		t.Fatalf("unexpected stream body: %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type: want=text/event-stream got=%q", got)
	}
}
