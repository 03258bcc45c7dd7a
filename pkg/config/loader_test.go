package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestMergeMapsNested(t *testing.T) {
	base := map[string]interface{}{
		"db":     map[string]interface{}{"host": "localhost", "port": 5432},
		"server": map[string]interface{}{"port": ":8080"},
	}
	override := map[string]interface{}{
		"db": map[string]interface{}{"host": "postgres"},
	}

	merged := mergeMaps(base, override)

	db := merged["db"].(map[string]interface{})
	if db["host"] != "postgres" {
		t.Fatalf("expected host override, got %v", db["host"])
	}
	if db["port"] != 5432 {
		t.Fatalf("expected port to survive merge, got %v", db["port"])
	}
	if base["db"].(map[string]interface{})["host"] != "localhost" {
		t.Fatalf("merge must not mutate the base map")
	}
}

func TestDecodeLayersEnvAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
  password: ${DB_SECRET}
  slow_query: 150ms
jwt:
  ttl: 24h
`)
	writeFile(t, dir, "test.yaml", `
db:
  host: db.internal
`)
	writeFile(t, dir, "secrets.env", "# comment\nDB_SECRET='s3cret'\n")

	var out struct {
		DB  DBConfig  `yaml:"db"`
		JWT JWTConfig `yaml:"jwt"`
	}
	if err := Decode("test", dir, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if out.DB.Host != "db.internal" {
		t.Fatalf("expected env layer host, got %q", out.DB.Host)
	}
	if out.DB.Port != 5432 {
		t.Fatalf("expected base port, got %d", out.DB.Port)
	}
	if out.DB.Password != "s3cret" {
		t.Fatalf("expected secret substitution, got %q", out.DB.Password)
	}
	if out.DB.SlowQuery != 150*time.Millisecond {
		t.Fatalf("expected 150ms slow query threshold, got %v", out.DB.SlowQuery)
	}
	if out.JWT.TTL != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %v", out.JWT.TTL)
	}
}

func TestDecodeMissingBase(t *testing.T) {
	var out struct{}
	if err := Decode("local", t.TempDir(), &out); err == nil {
		t.Fatal("expected error when base.yaml is missing")
	}
}
