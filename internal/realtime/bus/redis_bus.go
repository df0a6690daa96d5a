package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
	"github.com/yungbote/wishlist-backend/internal/realtime"
)

// RedisConfig.Addr is either host:port or a redis:// / rediss:// URL. A URL
// carries its own credentials and db, overriding Password and DB.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Channel  string `env:"REDIS_CHANNEL" envDefault:"sse"`
}

func (c RedisConfig) options() (*goredis.Options, error) {
	addr := strings.TrimSpace(c.Addr)
	if addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := goredis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_ADDR: %w", err)
		}
		opts.DialTimeout = 5 * time.Second
		return opts, nil
	}
	return &goredis.Options{
		Addr:        addr,
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: 5 * time.Second,
	}, nil
}

// envelopeVersion is bumped whenever the envelope shape changes; forwarders
// drop versions they do not know so mixed deployments never misdeliver.
const envelopeVersion = 1

type envelope struct {
	V       int                 `json:"v"`
	SentAt  time.Time           `json:"sent_at"`
	Message realtime.SSEMessage `json:"message"`
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects and pings redis.
func NewRedisBus(ctx context.Context, log *logger.Logger, cfg RedisConfig) (Bus, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "sse"
	}

	rdb := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &redisBus{log: log.With("service", "RedisSSEBus"), rdb: rdb, channel: channel}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return errors.New("redis SSE bus not initialized")
	}
	raw, err := encodeMessage(msg, time.Now().UTC())
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, h Handler) error {
	if b == nil || b.rdb == nil {
		return errors.New("redis SSE bus not initialized")
	}
	if h == nil {
		return errors.New("forwarder handler required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	go b.forward(ctx, sub, h)
	return nil
}

func (b *redisBus) forward(ctx context.Context, sub *goredis.PubSub, h Handler) {
	defer sub.Close()
	in := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			msg, err := decodeMessage(m.Payload)
			if err != nil {
				b.log.Warn("Dropping redis SSE payload", "channel", b.channel, "error", err)
				continue
			}
			h(msg)
		}
	}
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func encodeMessage(msg realtime.SSEMessage, at time.Time) ([]byte, error) {
	if strings.TrimSpace(msg.Channel) == "" {
		return nil, errors.New("SSE message without channel")
	}
	return json.Marshal(envelope{V: envelopeVersion, SentAt: at, Message: msg})
}

func decodeMessage(payload string) (realtime.SSEMessage, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return realtime.SSEMessage{}, err
	}
	if env.V != envelopeVersion {
		return realtime.SSEMessage{}, fmt.Errorf("unsupported envelope version %d", env.V)
	}
	if strings.TrimSpace(env.Message.Channel) == "" {
		return realtime.SSEMessage{}, errors.New("SSE payload without channel")
	}
	return env.Message, nil
}
