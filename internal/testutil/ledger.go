// Package testutil opens throwaway ledger databases for tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/furni4/internal/config"
	"github.com/Additional-Code/furni4/internal/database"
	"github.com/Additional-Code/furni4/internal/migration"
)

// Config returns a configuration pointing at a private in-memory sqlite
// database named after the test.
func Config(t testing.TB) config.Config {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return config.Config{
		Database: config.Database{
			Driver:       "sqlite",
			WriterDSN:    "file:" + name + "?mode=memory&cache=shared&_busy_timeout=5000",
			MaxOpenConns: 4,
			MaxIdleConns: 4,
			AutoMigrate:  true,
		},
		Auth: config.Auth{
			JWTSecret:     "test-secret",
			TokenTTL:      time.Hour,
			AdminUsername: "admin",
			AdminPassword: "admin123",
		},
	}
}

// Open returns unmigrated connections, closed when the test ends.
func Open(t testing.TB, cfg config.Config) *database.Connections {
	t.Helper()
	conns, err := database.Open(cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := conns.Writer.DB.PingContext(context.Background()); err != nil {
		t.Fatalf("ping database: %v", err)
	}
	t.Cleanup(func() { _ = conns.Close() })
	return conns
}

// Migrated returns connections with the full schema applied.
func Migrated(t testing.TB, cfg config.Config) *database.Connections {
	t.Helper()
	conns := Open(t, cfg)
	m, err := migration.New(cfg, conns, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conns
}
