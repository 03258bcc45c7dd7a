package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
db:
  host: localhost
jwt:
  secret: from-file
`)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load("test", dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Env != "test" {
		t.Fatalf("expected env test, got %q", cfg.Env)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Storage.Driver)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Fatalf("expected env secret to win, got %q", cfg.JWT.Secret)
	}
	if cfg.JWT.TTL != 24*time.Hour {
		t.Fatalf("expected default ttl, got %v", cfg.JWT.TTL)
	}
	if cfg.Server.Port != ":8080" || cfg.DB.Port != 5432 {
		t.Fatalf("unexpected defaults: port=%q db_port=%d", cfg.Server.Port, cfg.DB.Port)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
storage:
  driver: mongo
jwt:
  secret: s
`)
	t.Setenv("STORAGE_DRIVER", "")

	if _, err := Load("test", dir); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "log_level: debug\n")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load("test", dir); err == nil {
		t.Fatal("expected error without jwt secret")
	}
}
