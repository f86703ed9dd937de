package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

// step is one named, forward-only schema change.
type step struct {
	version int64
	name    string
	up      func(ctx context.Context, tx *sql.Tx) error
}

// column describes a column that later versions add to an existing table.
type column struct {
	name       string
	definition string
}

// steps returns the ordered migration list for a dialect. Versions are never
// renumbered or removed; new steps are appended.
func steps(d dialect) []step {
	return []step{
		{1, "create_orders", func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, d.createOrders())
			return err
		}},
		{2, "add_total_paid_date", addColumns(d, "orders", column{"total_paid_date", "INTEGER NOT NULL DEFAULT 0"})},
		{3, "add_price", addColumns(d, "orders", column{"price", d.money() + " NOT NULL DEFAULT 0"})},
		{4, "add_pending_balance", addColumns(d, "orders", column{"pending_balance_fixed", d.money() + " NOT NULL DEFAULT 0"})},
		{5, "create_credentials", func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, d.createCredentials())
			return err
		}},
	}
}

func gooseMigrations(d dialect) []*goose.Migration {
	list := steps(d)
	out := make([]*goose.Migration, 0, len(list))
	for _, s := range list {
		out = append(out, goose.NewGoMigration(s.version, &goose.GoFunc{RunTx: s.up}, nil))
	}
	return out
}

// addColumns adds each missing column. Tables created before version
// tracking may already carry some of them.
func addColumns(d dialect, table string, cols ...column) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		existing, err := tableColumns(ctx, tx, table)
		if err != nil {
			return err
		}
		for _, c := range cols {
			if _, ok := existing[c.name]; ok {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", d.quote(table), d.quote(c.name), c.definition)
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("add column %s.%s: %w", table, c.name, err)
			}
		}
		return nil
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// tableColumns introspects the live column set without touching row data.
func tableColumns(ctx context.Context, q queryer, table string) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, "SELECT * FROM "+table+" WHERE 1 = 0")
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[strings.ToLower(n)] = struct{}{}
	}
	return out, rows.Err()
}

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
	dialectMySQL    dialect = "mysql"
)

func (d dialect) goose() goose.Dialect {
	switch d {
	case dialectPostgres:
		return goose.DialectPostgres
	case dialectMySQL:
		return goose.DialectMySQL
	default:
		return goose.DialectSQLite3
	}
}

func (d dialect) quote(ident string) string {
	if d == dialectMySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

func (d dialect) money() string {
	switch d {
	case dialectPostgres:
		return "NUMERIC(14,2)"
	case dialectMySQL:
		return "DECIMAL(14,2)"
	default:
		return "REAL"
	}
}

func (d dialect) createOrders() string {
	switch d {
	case dialectPostgres:
		return `CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_paid NUMERIC(14,2) NOT NULL DEFAULT 0,
	order_date DATE NOT NULL,
	customer_name TEXT NOT NULL,
	pending_balance_fixed NUMERIC(14,2) NOT NULL DEFAULT 0,
	total_paid_date INTEGER NOT NULL DEFAULT 0
)`
	case dialectMySQL:
		return "CREATE TABLE IF NOT EXISTS orders (" +
			"id BIGINT AUTO_INCREMENT PRIMARY KEY," +
			"product_name VARCHAR(255) NOT NULL," +
			"quantity INT NOT NULL," +
			"price DECIMAL(14,2) NOT NULL DEFAULT 0," +
			"total_paid DECIMAL(14,2) NOT NULL DEFAULT 0," +
			"order_date DATE NOT NULL," +
			"customer_name VARCHAR(255) NOT NULL," +
			"pending_balance_fixed DECIMAL(14,2) NOT NULL DEFAULT 0," +
			"total_paid_date INT NOT NULL DEFAULT 0" +
			")"
	default:
		return `CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price REAL NOT NULL DEFAULT 0,
	total_paid REAL NOT NULL DEFAULT 0,
	order_date TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	pending_balance_fixed REAL NOT NULL DEFAULT 0,
	total_paid_date INTEGER NOT NULL DEFAULT 0
)`
	}
}

func (d dialect) createCredentials() string {
	switch d {
	case dialectPostgres:
		return `CREATE TABLE IF NOT EXISTS credentials (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'vendor',
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	case dialectMySQL:
		return "CREATE TABLE IF NOT EXISTS credentials (" +
			"id BIGINT AUTO_INCREMENT PRIMARY KEY," +
			"username VARCHAR(191) NOT NULL UNIQUE," +
			"password_hash VARCHAR(255) NOT NULL," +
			"role VARCHAR(32) NOT NULL DEFAULT 'vendor'," +
			"created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP" +
			")"
	default:
		return `CREATE TABLE IF NOT EXISTS credentials (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'vendor',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	}
}
