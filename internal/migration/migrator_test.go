package migration_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/furni4/internal/migration"
	"github.com/Additional-Code/furni4/internal/testutil"
)

var wantColumns = []string{
	"customer_name",
	"id",
	"order_date",
	"pending_balance_fixed",
	"price",
	"product_name",
	"quantity",
	"total_paid",
	"total_paid_date",
}

func TestUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.Config(t)
	conns := testutil.Open(t, cfg)

	m, err := migration.New(cfg, conns, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}

	if err := m.Up(ctx); err != nil {
		t.Fatalf("first up: %v", err)
	}
	first, err := m.Columns(ctx)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}

	if err := m.Up(ctx); err != nil {
		t.Fatalf("second up: %v", err)
	}
	second, err := m.Columns(ctx)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("column set changed between runs: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(first, wantColumns) {
		t.Fatalf("columns = %v, want %v", first, wantColumns)
	}

	version, err := m.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 5 {
		t.Fatalf("version = %d, want 5", version)
	}
}

func TestUpUpgradesLegacyTableWithoutTouchingRows(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.Config(t)
	conns := testutil.Open(t, cfg)

	legacy := []string{
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			total_paid REAL DEFAULT 0,
			order_date TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			pending_balance_fixed REAL DEFAULT 0
		)`,
		`INSERT INTO orders (product_name, quantity, total_paid, order_date, customer_name, pending_balance_fixed)
			VALUES ('Chair', 5, 400.0, '2025-03-07', 'John Doe', 100.0)`,
	}
	for _, stmt := range legacy {
		if _, err := conns.Writer.DB.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("legacy setup: %v", err)
		}
	}

	m, err := migration.New(cfg, conns, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("up: %v", err)
	}

	cols, err := m.Columns(ctx)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if !reflect.DeepEqual(cols, wantColumns) {
		t.Fatalf("columns = %v, want %v", cols, wantColumns)
	}

	var (
		customer  string
		price     float64
		paidDate  int64
		totalPaid float64
	)
	row := conns.Writer.DB.QueryRowContext(ctx, "SELECT customer_name, price, total_paid_date, total_paid FROM orders WHERE id = 1")
	if err := row.Scan(&customer, &price, &paidDate, &totalPaid); err != nil {
		t.Fatalf("scan legacy row: %v", err)
	}
	if customer != "John Doe" || totalPaid != 400 {
		t.Fatalf("legacy row altered: %s %v", customer, totalPaid)
	}
	if price != 0 || paidDate != 0 {
		t.Fatalf("added columns should carry defaults, got price=%v paid_date=%d", price, paidDate)
	}
}

func TestStatusListsHistory(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.Config(t)
	conns := testutil.Open(t, cfg)

	m, err := migration.New(cfg, conns, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}

	before, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, s := range before {
		if s.Applied {
			t.Fatalf("migration %d applied before Up", s.Version)
		}
	}

	if err := m.Up(ctx); err != nil {
		t.Fatalf("up: %v", err)
	}

	after, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	wantNames := []string{"create_orders", "add_total_paid_date", "add_price", "add_pending_balance", "create_credentials"}
	if len(after) != len(wantNames) {
		t.Fatalf("got %d migrations, want %d", len(after), len(wantNames))
	}
	for i, s := range after {
		if s.Version != int64(i+1) || s.Name != wantNames[i] || !s.Applied {
			t.Fatalf("unexpected status %+v at %d", s, i)
		}
	}
}

func TestUpFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.Config(t)
	conns := testutil.Open(t, cfg)

	if _, err := conns.Writer.DB.ExecContext(ctx, "CREATE VIEW orders AS SELECT 1 AS id"); err != nil {
		t.Fatalf("create view: %v", err)
	}

	m, err := migration.New(cfg, conns, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	err = m.Up(ctx)
	if !errors.Is(err, migration.ErrSchemaMigration) {
		t.Fatalf("expected ErrSchemaMigration, got %v", err)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testutil.Config(t)
	conns := testutil.Open(t, cfg)
	cfg.Database.Driver = "oracle"
	if _, err := migration.New(cfg, conns, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
