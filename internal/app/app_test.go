package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/data/db"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
)

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	raw := "JWT_SECRET_KEY=from-file\nPORT=9090\nCORS_ORIGINS=https://a.example.com,https://b.example.com\nNOTIFY_CONCURRENCY=7\nREDIS_CHANNEL=santa\nDB_DRIVER=postgres\n"
	if err := os.WriteFile(envFile, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, k := range []string{"JWT_SECRET_KEY", "PORT", "CORS_ORIGINS", "NOTIFY_CONCURRENCY", "REDIS_CHANNEL", "DB_DRIVER"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig(envFile, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWTSecretKey != "from-file" || cfg.Addr() != ":9090" {
		t.Fatalf("config: got secret=%q addr=%q", cfg.JWTSecretKey, cfg.Addr())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors: got=%v", cfg.CORSOrigins)
	}
	if cfg.Mail.Concurrency != 7 || cfg.Redis.Channel != "santa" {
		t.Fatalf("nested config: mail=%+v redis=%+v", cfg.Mail, cfg.Redis)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("process env must win: got driver=%q", cfg.DB.Driver)
	}
	if cfg.SendGrid.MaxRetries != 4 || cfg.DevTokenTTL != 24*time.Hour {
		t.Fatalf("defaults: got retries=%d ttl=%s", cfg.SendGrid.MaxRetries, cfg.DevTokenTTL)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.env")); err == nil {
		t.Fatalf("expected error without JWT_SECRET_KEY")
	}
}

func TestNewWiresSQLiteApp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := Config{
		Port:         "0",
		JWTSecretKey: "test-secret",
		AutoMigrate:  true,
		DB:           db.Config{Driver: db.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "app.db")},
	}
	a, err := New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: want=200 got=%d", rec.Code)
	}

	token, err := a.Services.Auth.IssueToken(uuid.New(), false, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/events/00000000-0000-0000-0000-000000000001/secret-santa", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	// the token's user does not exist
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unknown user: want=403 got=%d body=%s", rec.Code, rec.Body.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run with cancelled ctx: %v", err)
	}
}
