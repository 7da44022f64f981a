package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("BACKEND_ADDR", ":8080")
	t.Setenv("PORT", "")
	t.Setenv("JWT_TTL_MINUTES", "")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("WS_ALLOWED_ORIGINS", "")
	t.Setenv("DEV_WEBSOCKETS_ALLOW_ALL", "")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.JWTIssuer != "blackjack-table" {
		t.Errorf("JWTIssuer = %q", cfg.JWTIssuer)
	}
	if cfg.JWTTTL != 10080*time.Minute {
		t.Errorf("JWTTTL = %v, want 7 days", cfg.JWTTTL)
	}
	if cfg.AppEnv != "development" {
		t.Errorf("AppEnv = %q", cfg.AppEnv)
	}
}

func TestLoadFromEnvMissingKeys(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_PATH", "")
	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("expected error for missing env")
	}
	for _, key := range []string{"JWT_SECRET", "DATABASE_PATH"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestLoadFromEnvPortFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BACKEND_ADDR", "")
	t.Setenv("PORT", "9090")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Addr)
	}
}

func TestLoadFromEnvOriginsList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if len(cfg.WSAllowedOrigins) != 2 ||
		cfg.WSAllowedOrigins[0] != "https://a.example" ||
		cfg.WSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("WSAllowedOrigins = %v", cfg.WSAllowedOrigins)
	}
}
