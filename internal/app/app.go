package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/data/db"
	"github.com/yungbote/wishlist-backend/internal/http"
	"github.com/yungbote/wishlist-backend/internal/observability"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
	"github.com/yungbote/wishlist-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New wires the whole API. The Redis forwarder, when configured, runs until Close.
func New(cfg Config, log *logger.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{Log: log, Cfg: cfg, cancel: cancel}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.OTel)

	theDB, err := db.Open(log, cfg.DB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init db: %w", err)
	}
	a.DB = theDB
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	a.SSEHub = realtime.NewSSEHub(log)
	a.Repos = wireRepos(theDB, log)

	a.Services, err = wireServices(ctx, theDB, log, cfg, a.Repos, a.SSEHub)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Router, err = wireRouter(log, cfg, wireHandlers(theDB, log, a.Services, a.SSEHub), a.Services)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Run serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr())
	return (&http.Server{Engine: a.Router}).Run(ctx, a.Cfg.Addr())
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Bus != nil {
		_ = a.Services.Bus.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.DB != nil {
		_ = db.Close(a.DB)
	}
	a.Log.Sync()
}
