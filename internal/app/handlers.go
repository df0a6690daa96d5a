package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/http"
	httpH "github.com/yungbote/wishlist-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wishlist-backend/internal/http/middleware"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
	"github.com/yungbote/wishlist-backend/internal/realtime"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Realtime    *httpH.RealtimeHandler
	SecretSanta *httpH.SecretSantaHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db),
		Realtime:    httpH.NewRealtimeHandler(log, hub),
		SecretSanta: httpH.NewSecretSantaHandler(log, s.SecretSanta),
	}
}

func wireRouter(log *logger.Logger, cfg Config, h Handlers, s Services) (*gin.Engine, error) {
	metrics, err := httpMW.Metrics(nil)
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}
	serviceName := ""
	if cfg.OTel.Enabled {
		serviceName = cfg.OTel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		ServiceName:        serviceName,
		CORSOrigins:        cfg.CORSOrigins,
		Metrics:            metrics,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, s.Auth),
		HealthHandler:      h.Health,
		RealtimeHandler:    h.Realtime,
		SecretSantaHandler: h.SecretSanta,
	}), nil
}
