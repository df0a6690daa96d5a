package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/yungbote/wishlist-backend/internal/pkg/ctxutil"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type stubAuth struct {
	userID uuid.UUID
	err    error
	got    string
}

func (s *stubAuth) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	s.got = tokenString
	if s.err != nil {
		return ctx, s.err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: s.userID, TokenString: tokenString}), nil
}

func (s *stubAuth) IssueToken(uuid.UUID, bool, time.Duration) (string, error) { return "", nil }

func authRouter(auth *stubAuth) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	var seen uuid.UUID
	r := gin.New()
	r.Use(NewAuthMiddleware(logger.Nop(), auth).RequireAuth())
	r.GET("/api/x", func(c *gin.Context) {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			seen = rd.UserID
		}
		c.Status(http.StatusNoContent)
	})
	return r, &seen
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()

	auth := &stubAuth{userID: userID}
	r, seen := authRouter(auth)
	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || *seen != userID || auth.got != "abc" {
		t.Fatalf("bearer: got status=%d user=%s token=%q", rec.Code, *seen, auth.got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x?token=qtok", nil))
	if rec.Code != http.StatusNoContent || auth.got != "qtok" {
		t.Fatalf("query token: got status=%d token=%q", rec.Code, auth.got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: want=401 got=%d", rec.Code)
	}

	r, _ = authRouter(&stubAuth{err: errors.New("expired")})
	req = httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want=401 got=%d", rec.Code)
	}

	r, _ = authRouter(&stubAuth{userID: uuid.Nil})
	req = httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("nil user: want=403 got=%d", rec.Code)
	}
}

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var td *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		td = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if td == nil || td.RequestID != "req-1" || td.TraceID == "" {
		t.Fatalf("trace data: got=%+v", td)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "req-1" {
		t.Fatalf("X-Request-Id: want=req-1 got=%q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if _, err := uuid.Parse(rec.Header().Get("X-Request-Id")); err != nil {
		t.Fatalf("generated request id should be a uuid: %v", err)
	}
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw, err := Metrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	r := gin.New()
	r.Use(mw, RequestLogger(logger.Nop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status: want=%d got=%d", http.StatusTeapot, rec.Code)
	}
}

func TestMetricsMiddlewareRecordsRouteLatency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reader := sdkmetric.NewManualReader()
	mw, err := Metrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	r := gin.New()
	r.Use(mw)
	r.GET("/api/events/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events/abc", nil))
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var hist metricdata.Histogram[float64]
	var active metricdata.Sum[int64]
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "http.server.request.duration":
				hist, _ = m.Data.(metricdata.Histogram[float64])
			case "http.server.active_requests":
				active, _ = m.Data.(metricdata.Sum[int64])
			}
		}
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("duration points: want=1 got=%d", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 2 {
		t.Fatalf("duration count: want=2 got=%d", dp.Count)
	}
	if route, _ := dp.Attributes.Value(attribute.Key("http.route")); route.AsString() != "/api/events/:id" {
		t.Fatalf("http.route: want=/api/events/:id got=%q", route.AsString())
	}
	if code, _ := dp.Attributes.Value(attribute.Key("http.response.status_code")); code.AsInt64() != http.StatusNoContent {
		t.Fatalf("status_code: want=%d got=%d", http.StatusNoContent, code.AsInt64())
	}
	for _, p := range active.DataPoints {
		if p.Value != 0 {
			t.Fatalf("active_requests after completion: want=0 got=%d", p.Value)
		}
	}
}
