package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr: %q", cfg.Addr)
	}
	if cfg.Optimizer.TimeBudgetMs != 30000 {
		t.Fatalf("time budget: %d", cfg.Optimizer.TimeBudgetMs)
	}
	if cfg.RateLimit.RPS != 10 || cfg.RateLimit.Burst != 20 {
		t.Fatalf("rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr: %q", cfg.Addr)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
addr: ":9090"
databaseUrl: "postgres://localhost/routeplan"
optimizer:
  timeBudgetMs: 500
  maxIterations: 1000
  workers: 4
rateLimit:
  rps: 2.5
  burst: 5
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr: %q", cfg.Addr)
	}
	if cfg.DatabaseURL != "postgres://localhost/routeplan" {
		t.Fatalf("database url: %q", cfg.DatabaseURL)
	}
	if cfg.Optimizer.TimeBudgetMs != 500 || cfg.Optimizer.MaxIterations != 1000 || cfg.Optimizer.Workers != 4 {
		t.Fatalf("optimizer: %+v", cfg.Optimizer)
	}
	if cfg.RateLimit.RPS != 2.5 || cfg.RateLimit.Burst != 5 {
		t.Fatalf("rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://db/x")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("addr: %q", cfg.Addr)
	}
	if cfg.DatabaseURL != "postgres://db/x" {
		t.Fatalf("database url: %q", cfg.DatabaseURL)
	}
	if cfg.RedisURL != "redis://cache:6379" {
		t.Fatalf("redis url: %q", cfg.RedisURL)
	}
}
