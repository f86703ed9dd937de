package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/furni4/internal/config"
)

func newTestConfig(dsn, seedURL string) config.Config {
	return config.Config{
		Database:  config.Database{Driver: "sqlite", WriterDSN: dsn},
		Bootstrap: config.Bootstrap{URL: seedURL, Timeout: 5 * time.Second},
	}
}

func TestSQLitePath(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"file:data/furniture_orders.db?_busy_timeout=5000", "data/furniture_orders.db"},
		{"orders.db", "orders.db"},
		{":memory:", ""},
		{"file:ledger?mode=memory&cache=shared", ""},
		{"file::memory:?cache=shared", ""},
	}
	for _, tt := range tests {
		if got := SQLitePath(tt.dsn); got != tt.want {
			t.Errorf("SQLitePath(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestNewSkipsWhenNotApplicable(t *testing.T) {
	logger := zaptest.NewLogger(t)
	if New(newTestConfig("file:x.db", ""), logger) != nil {
		t.Fatalf("expected nil fetcher without URL")
	}
	cfg := newTestConfig("postgres://localhost/ledger", "http://example.invalid/seed.db")
	cfg.Database.Driver = "postgres"
	if New(cfg, logger) != nil {
		t.Fatalf("expected nil fetcher for postgres")
	}
	var f *Fetcher
	if err := f.Ensure(context.Background()); err != nil {
		t.Fatalf("nil fetcher should be a no-op: %v", err)
	}
}

func TestEnsureDownloadsMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("seed-bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "data", "furniture_orders.db")
	f := New(newTestConfig("file:"+path, srv.URL), zaptest.NewLogger(t))

	if err := f.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read seeded file: %v", err)
	}
	if string(raw) != "seed-bytes" {
		t.Fatalf("unexpected content %q", raw)
	}
}

func TestEnsureKeepsExistingFile(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "orders.db")
	if err := os.WriteFile(path, []byte("local"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := New(newTestConfig(path, srv.URL), zaptest.NewLogger(t))
	if err := f.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if calls != 0 {
		t.Fatalf("existing file should not trigger a download")
	}
}

func TestEnsureFailureLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "orders.db")
	f := New(newTestConfig(path, srv.URL), zaptest.NewLogger(t))

	err := f.Ensure(context.Background())
	if !errors.Is(err, ErrBootstrapFailed) {
		t.Fatalf("expected ErrBootstrapFailed, got %v", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("failed bootstrap left a file behind")
	}
}
