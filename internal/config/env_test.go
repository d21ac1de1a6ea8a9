package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadEnv_AppliesOnlyToUnsetValues(t *testing.T) {
	t.Setenv("RETAIL_WORKERS", "7")
	t.Setenv("RETAIL_AGGREGATE_TIMEOUT", "2m")
	t.Setenv("RETAIL_LOG_LEVEL", "debug")
	t.Setenv("RETAIL_STRICT_JOINS", "true")
	t.Setenv("RETAIL_STORAGE_DSN", "file:env.db")

	env, err := ReadEnv()
	if err != nil {
		t.Fatalf("ReadEnv: %v", err)
	}

	p := Pipeline{Log: LogConfig{Level: "warn"}}
	p = WithDefaults(env.Apply(p))

	if p.Runtime.Workers != 7 {
		t.Fatalf("workers = %d, want 7 from env", p.Runtime.Workers)
	}
	if p.Runtime.AggregateTimeout.D() != 2*time.Minute {
		t.Fatalf("aggregate_timeout = %v, want 2m", p.Runtime.AggregateTimeout.D())
	}
	if p.Log.Level != "warn" {
		t.Fatalf("log level = %q; file value must win over env", p.Log.Level)
	}
	if !p.Runtime.StrictJoins {
		t.Fatal("strict_joins should be switched on by env")
	}
	if p.Outputs.Storage.DB.DSN != "file:env.db" {
		t.Fatalf("dsn = %q", p.Outputs.Storage.DB.DSN)
	}
}

func TestReadEnv_InvalidValue(t *testing.T) {
	t.Setenv("RETAIL_WORKERS", "many")
	if _, err := ReadEnv(); err == nil {
		t.Fatal("ReadEnv accepted a non-numeric RETAIL_WORKERS")
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "RETAIL_DOTENV_PROBE"
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if err := LoadDotEnv(""); err != nil {
		t.Fatalf("empty path: %v", err)
	}

	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Fatalf("%s = %q, want from-file", key, got)
	}
}
