package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("expected sqlite default driver, got %q", cfg.DB.Driver)
	}

	if got := cfg.Scryfall.Timeout; got != 10*time.Second {
		t.Fatalf("expected scryfall timeout 10s, got %v", got)
	}

	if cfg.Redis.URL != "" {
		t.Fatalf("redis should be optional, got %q", cfg.Redis.URL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDBDriver, "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported driver to return an error")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	app := AppConfig{Env: "Development"}
	if !app.IsDev() || app.IsProd() {
		t.Fatalf("expected dev helpers to match case-insensitively")
	}
	app.Env = "PRODUCTION"
	if app.IsDev() || !app.IsProd() {
		t.Fatalf("expected prod helpers to match case-insensitively")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	os.Unsetenv("NETDECKER_DB_DRIVER")
	os.Unsetenv("NETDECKER_REDIS_URL")
}
