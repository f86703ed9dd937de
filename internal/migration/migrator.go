package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/furni4/internal/config"
	"github.com/Additional-Code/furni4/internal/database"
)

// ErrSchemaMigration marks a failed schema change. The process must not
// serve requests against a partially migrated schema.
var ErrSchemaMigration = errors.New("schema migration failed")

// Module provides the Migrator to Fx.
var Module = fx.Provide(New)

// OnStart applies pending migrations when the application starts.
var OnStart = fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, m *Migrator) {
	if !cfg.Database.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{OnStart: m.Up})
})

// Migrator wraps a goose provider bound to the writer connection.
type Migrator struct {
	db       *bun.DB
	provider *goose.Provider
	names    map[int64]string
	logger   *zap.Logger
}

// Status describes one migration in the history.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// New constructs a goose-backed migrator.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	d, err := dialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(d.goose(), conns.Writer.DB, nil,
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(gooseMigrations(d)...),
	)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string)
	for _, s := range steps(d) {
		names[s.version] = s.name
	}

	return &Migrator{
		db:       conns.Writer,
		provider: provider,
		names:    names,
		logger:   logger,
	}, nil
}

// Up applies all pending migrations. Running it again is a no-op.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")

			return nil
		}
		m.logger.Error("schema migration failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSchemaMigration, err)
	}

	if len(results) == 0 {
		m.logger.Info("no migrations to apply")

		return nil
	}

	for _, r := range results {
		m.logger.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("name", m.names[r.Source.Version]),
			zap.Duration("duration", r.Duration),
		)
	}

	return nil
}

// Status reports every known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version:   s.Source.Version,
			Name:      m.names[s.Source.Version],
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Version returns the highest applied migration version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

// Columns returns the live, sorted column set of the orders table.
func (m *Migrator) Columns(ctx context.Context) ([]string, error) {
	set, err := tableColumns(ctx, m.db.DB, "orders")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres", "pg":
		return dialectPostgres, nil
	case "mysql":
		return dialectMySQL, nil
	case "sqlite", "sqlite3":
		return dialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "no migrations")
}
