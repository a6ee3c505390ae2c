package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsDevelopment(t *testing.T) {
	t.Setenv("WALKIN_ENV", "")
	t.Setenv("WALKIN_API_URL", "")
	t.Setenv("WALKIN_API_TIMEOUT_SECONDS", "")
	t.Setenv("WALKIN_POLL_INTERVAL_SECONDS", "")

	cfg := FromEnv()
	if cfg.Env != EnvDevelopment {
		t.Errorf("env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.APIURL != defaultDevAPIURL {
		t.Errorf("api url = %q, want %q", cfg.APIURL, defaultDevAPIURL)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("api timeout = %v, want 10s", cfg.APITimeout)
	}
	if cfg.AuthTimeout != 60*time.Second {
		t.Errorf("auth timeout = %v, want 60s", cfg.AuthTimeout)
	}
	if cfg.PollInterval != 5*time.Minute {
		t.Errorf("poll interval = %v, want 5m", cfg.PollInterval)
	}
}

func TestProductionURL(t *testing.T) {
	t.Setenv("WALKIN_ENV", "production")
	t.Setenv("WALKIN_API_URL", "")

	cfg := FromEnv()
	if !cfg.IsProduction() {
		t.Error("expected production profile")
	}
	if cfg.APIURL != defaultProdAPIURL {
		t.Errorf("api url = %q, want %q", cfg.APIURL, defaultProdAPIURL)
	}
}

func TestExplicitURLTrimmed(t *testing.T) {
	t.Setenv("WALKIN_API_URL", "https://example.test/api/v1/")

	cfg := FromEnv()
	if cfg.APIURL != "https://example.test/api/v1" {
		t.Errorf("api url = %q", cfg.APIURL)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("WALKIN_API_TIMEOUT_SECONDS", "soon")
	t.Setenv("WALKIN_POLL_INTERVAL_SECONDS", "-3")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "maybe")

	cfg := FromEnv()
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("api timeout = %v, want 10s", cfg.APITimeout)
	}
	if cfg.PollInterval != 300*time.Second {
		t.Errorf("poll interval = %v, want 300s", cfg.PollInterval)
	}
	if cfg.OTLPInsecure {
		t.Error("expected insecure=false for unparsable value")
	}
}

func TestLoadFileReadsDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("WALKIN_DB_PATH=/tmp/from-dotenv.db\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	// godotenv does not override variables that are already set, so make
	// sure this one is absent before loading.
	t.Setenv("WALKIN_DB_PATH", "")
	os.Unsetenv("WALKIN_DB_PATH")

	cfg := LoadFile(path)
	if cfg.DBPath != "/tmp/from-dotenv.db" {
		t.Errorf("db path = %q, want %q", cfg.DBPath, "/tmp/from-dotenv.db")
	}
}
