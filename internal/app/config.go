package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yungbote/wishlist-backend/internal/data/db"
	"github.com/yungbote/wishlist-backend/internal/observability"
	"github.com/yungbote/wishlist-backend/internal/platform/sendgrid"
	"github.com/yungbote/wishlist-backend/internal/realtime/bus"
	"github.com/yungbote/wishlist-backend/internal/services"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`

	JWTSecretKey string        `env:"JWT_SECRET_KEY"`
	DevTokenTTL  time.Duration `env:"DEV_TOKEN_TTL" envDefault:"24h"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	AutoMigrate bool     `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	DB       db.Config
	SendGrid sendgrid.Config
	Mail     services.MailConfig
	Redis    bus.RedisConfig
	OTel     observability.OtelConfig
}

// LoadConfig reads envFiles (".env" when none given; missing files are
// skipped) and then parses the process environment. Variables already set in
// the environment win over file values.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("stat %s: %w", f, err)
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecretKey) == "" {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return cfg, nil
}

func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
