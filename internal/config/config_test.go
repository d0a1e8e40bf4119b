package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/telecare_test")
	t.Cleanup(func() { os.Unsetenv("DATABASE_URL") })
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected DB_MAX_CONNS 20, got %d", cfg.DBMaxConns)
	}
	if cfg.JWTTTLHours != 24 {
		t.Errorf("expected JWT_TTL_HOURS 24, got %d", cfg.JWTTTLHours)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_DevFallbackSecret(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected development fallback secret to be set")
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{Env: "production", JWTTTLHours: 24, DBMaxConns: 20, DBMinConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}

	cfg.JWTSecret = "telecare-dev-secret"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for dev default secret in production")
	}

	cfg.JWTSecret = "a-real-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := &Config{Env: "development", JWTSecret: "x", JWTTTLHours: 24, DBMaxConns: 2, DBMinConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when DB_MAX_CONNS < DB_MIN_CONNS")
	}
}

func TestIsDev(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDev() {
		t.Error("expected IsDev true")
	}
	cfg.Env = "production"
	if cfg.IsDev() {
		t.Error("expected IsDev false")
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction true")
	}
}
