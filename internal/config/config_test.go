package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")

	cfg, err := New()
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite3 to normalise to sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReaderDSN != cfg.Database.WriterDSN {
		t.Fatalf("reader DSN should default to writer DSN")
	}
	if !cfg.Database.AutoMigrate {
		t.Fatalf("auto migrate should default to true")
	}
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.Auth.TokenTTL)
	}
}

func TestNewDisabledBackendsUseNoop(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Cache.Driver != "noop" {
		t.Fatalf("cache driver = %q, want noop", cfg.Cache.Driver)
	}
	if cfg.Messaging.Driver != "noop" {
		t.Fatalf("messaging driver = %q, want noop", cfg.Messaging.Driver)
	}
}

func TestNewRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"http port", map[string]string{"HTTP_PORT": "0"}},
		{"cache driver", map[string]string{"CACHE_ENABLED": "true", "CACHE_DRIVER": "memcached"}},
		{"empty jwt secret", map[string]string{"AUTH_JWT_SECRET": "  "}},
		{"empty dsn", map[string]string{"DB_WRITER_DSN": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := New(); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestPrometheusPathGetsLeadingSlash(t *testing.T) {
	t.Setenv("OBS_PROMETHEUS_PATH", "metrics")

	cfg, err := New()
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Observability.PrometheusPath != "/metrics" {
		t.Fatalf("path = %q", cfg.Observability.PrometheusPath)
	}
}

func TestSecretsCanComeFromFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("AUTH_JWT_SECRET", "from-env")
	t.Setenv("AUTH_JWT_SECRET_FILE", path)

	cfg, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Fatalf("secret = %q", cfg.Auth.JWTSecret)
	}
}
