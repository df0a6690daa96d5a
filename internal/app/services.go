package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/wishlist-backend/internal/data/aggregates"
	"github.com/yungbote/wishlist-backend/internal/observability"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
	"github.com/yungbote/wishlist-backend/internal/platform/sendgrid"
	"github.com/yungbote/wishlist-backend/internal/realtime"
	"github.com/yungbote/wishlist-backend/internal/realtime/bus"
	"github.com/yungbote/wishlist-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	SecretSanta services.SecretSantaService
	Emitter     services.SSEEmitter
	// Bus is nil when REDIS_ADDR is unset.
	Bus bus.Bus
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, cfg.JWTSecretKey)
	if err != nil {
		return Services{}, err
	}

	var (
		emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
		sseBus  bus.Bus
	)
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		sseBus, err = bus.NewRedisBus(ctx, log, cfg.Redis)
		if err != nil {
			return Services{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		if err := sseBus.StartForwarder(ctx, hub.Broadcast); err != nil {
			_ = sseBus.Close()
			return Services{}, fmt.Errorf("start redis SSE forwarder: %w", err)
		}
		emitter = &services.RedisEmitter{Bus: sseBus, Log: log}
	}

	notifiers := services.MultiSecretSantaNotifier{services.NewRealtimeSecretSantaNotifier(emitter)}
	if strings.TrimSpace(cfg.SendGrid.APIKey) != "" {
		mail, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			return Services{}, fmt.Errorf("init sendgrid: %w", err)
		}
		mailNotifier, err := services.NewMailSecretSantaNotifier(log, mail, cfg.Mail)
		if err != nil {
			return Services{}, fmt.Errorf("init mail notifier: %w", err)
		}
		notifiers = append(notifiers, mailNotifier)
	} else {
		log.Warn("SENDGRID_API_KEY not set; secret santa mails disabled")
	}

	hooks, err := observability.NewAggregateHooks(nil)
	if err != nil {
		return Services{}, fmt.Errorf("init aggregate hooks: %w", err)
	}
	agg := aggregates.NewSecretSantaAggregate(aggregates.SecretSantaAggregateDeps{
		Base:         aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks},
		SecretSantas: r.SecretSantas,
		Participants: r.Participants,
	})

	return Services{
		Auth: auth,
		SecretSanta: services.NewSecretSantaService(services.SecretSantaServiceDeps{
			Log:          log,
			Users:        r.Users,
			Events:       r.Events,
			Attendees:    r.Attendees,
			SecretSantas: r.SecretSantas,
			Participants: r.Participants,
			Aggregate:    agg,
			Notifier:     notifiers,
		}),
		Emitter: emitter,
		Bus:     sseBus,
	}, nil
}
