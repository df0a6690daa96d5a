package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"429", statusErr(429), true},
		{"503", statusErr(503), true},
		{"501", statusErr(501), false},
		{"400", statusErr(400), false},
		{"wrapped 502", fmt.Errorf("send: %w", statusErr(502)), true},
		{"plain", fmt.Errorf("boom"), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	mid := func() float64 { return 0.5 } // no jitter
	b := Backoff{Base: time.Second, Max: 10 * time.Second, Rand: mid}
	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second} {
		if got := b.Delay(attempt, nil); got != want {
			t.Fatalf("attempt %d: want=%s got=%s", attempt, want, got)
		}
	}

	low := Backoff{Base: time.Second, Rand: func() float64 { return 0 }}
	if got := low.Delay(0, nil); got != 800*time.Millisecond {
		t.Fatalf("low jitter: want=800ms got=%s", got)
	}
}

func TestBackoffHonorsRetryAfter(t *testing.T) {
	now := time.Date(2026, 12, 1, 12, 0, 0, 0, time.UTC)
	b := Backoff{Base: time.Second, Max: 10 * time.Second, Now: func() time.Time { return now }}
	resp := &http.Response{Header: http.Header{}}

	resp.Header.Set("Retry-After", "3")
	if got := b.Delay(0, resp); got != 3*time.Second {
		t.Fatalf("seconds: want=3s got=%s", got)
	}
	resp.Header.Set("Retry-After", "30")
	if got := b.Delay(0, resp); got != 10*time.Second {
		t.Fatalf("capped: want=10s got=%s", got)
	}
	resp.Header.Set("Retry-After", now.Add(5*time.Second).Format(http.TimeFormat))
	if got := b.Delay(0, resp); got != 5*time.Second {
		t.Fatalf("http date: want=5s got=%s", got)
	}
}

func TestSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Minute); err == nil {
		t.Fatalf("expected context error")
	}
}
