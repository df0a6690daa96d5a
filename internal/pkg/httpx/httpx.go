// Package httpx holds the retry policy shared by outbound HTTP clients.
package httpx

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusCoder is implemented by client errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

func RetryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500 && code <= 599:
		return code != http.StatusNotImplemented
	}
	return false
}

// Retryable reports whether err is worth another attempt. A cancelled context
// is terminal; a deadline or network timeout is not.
func Retryable(err error) bool {
	var (
		netErr net.Error
		sc     StatusCoder
	)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.As(err, &netErr) && netErr.Timeout():
		return true
	case errors.As(err, &sc):
		return RetryableStatus(sc.HTTPStatusCode())
	}
	return false
}

// Backoff doubles Base per attempt up to Max and spreads each delay by +/-20%.
// A Retry-After header on the failed response takes precedence, capped at Max.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
	// Rand returns a value in [0,1); defaults to math/rand/v2.
	Rand func() float64
	Now  func() time.Time
}

// Delay returns how long to wait before retry number attempt (0-based).
func (b Backoff) Delay(attempt int, resp *http.Response) time.Duration {
	if d, ok := b.retryAfter(resp); ok {
		return b.capped(d)
	}
	d := b.Base
	for i := 0; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	return b.jitter(b.capped(d))
}

func (b Backoff) capped(d time.Duration) time.Duration {
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

func (b Backoff) jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	r := rand.Float64
	if b.Rand != nil {
		r = b.Rand
	}
	return time.Duration(float64(d) * (0.8 + 0.4*r()))
}

// retryAfter accepts both delta-seconds and HTTP-date forms.
func (b Backoff) retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(ra); err == nil {
		return time.Duration(secs) * time.Second, secs > 0
	}
	at, err := http.ParseTime(ra)
	if err != nil {
		return 0, false
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	d := at.Sub(now())
	return d, d > 0
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
