package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/wishlist-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wishlist-backend/internal/http/middleware"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// Metrics is optional; nil skips request metrics.
	Metrics gin.HandlerFunc

	AuthMiddleware     *httpMW.AuthMiddleware
	HealthHandler      *httpH.HealthHandler
	RealtimeHandler    *httpH.RealtimeHandler
	SecretSantaHandler *httpH.SecretSantaHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics)
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}

		if h := cfg.SecretSantaHandler; h != nil {
			protected.GET("/events/:id/secret-santa", h.GetForEvent)
			protected.POST("/events/:id/secret-santa", h.Create)

			protected.PATCH("/secret-santas/:id", h.Update)
			protected.DELETE("/secret-santas/:id", h.Delete)
			protected.POST("/secret-santas/:id/start", h.Start)
			protected.POST("/secret-santas/:id/cancel", h.Cancel)
			protected.POST("/secret-santas/:id/participants", h.AddParticipants)
			protected.GET("/secret-santas/:id/draw", h.GetMyDraw)

			protected.PUT("/secret-santa-participants/:id/exclusions", h.UpdateExclusions)
			protected.DELETE("/secret-santa-participants/:id", h.RemoveParticipant)
		}
	}

	return r
}
