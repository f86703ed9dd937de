package order

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/furni4/internal/auth"
	"github.com/Additional-Code/furni4/internal/database"
	"github.com/Additional-Code/furni4/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/furni4/repository/order")

var (
	// ErrNotFound is returned when an order is missing.
	ErrNotFound = errors.New("order not found")
	// ErrStorageUnavailable wraps failures to reach the backing store.
	ErrStorageUnavailable = errors.New("order storage unavailable")
)

// Repository is the only writer of the orders table.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// List returns every order in id order.
func (r *Repository) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	orders := make([]entity.Order, 0)
	err := ledgerColumns(r.reader.NewSelect().Model(&orders)).
		OrderExpr("o.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fail(span, "select failed", classify(err))
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

// Get fetches a single order by id.
func (r *Repository) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := ledgerColumns(r.reader.NewSelect().Model(order)).
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fail(span, "select failed", classify(err))
	}
	return order, nil
}

// Insert validates and persists order, returning the id assigned by storage.
// Any ID already set on order is ignored.
func (r *Repository) Insert(ctx context.Context, order *entity.Order) (int64, error) {
	if order == nil {
		return 0, errors.New("nil order")
	}
	if err := order.Validate(); err != nil {
		return 0, err
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Insert", trace.WithAttributes(attribute.String("order.product", order.ProductName)))
	defer span.End()

	order.ID = 0
	if _, err := r.writer.NewInsert().Model(order).Exec(ctx); err != nil {
		return 0, fail(span, "insert failed", classify(err))
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return order.ID, nil
}

// UpdateBalance replaces the pending balance of an existing order.
func (r *Repository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	if err := entity.ValidateBalance(balance); err != nil {
		return err
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateBalance", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("pending_balance_fixed = ?", balance).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fail(span, "update failed", classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fail(span, "rows affected", err)
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}

// Clear deletes every order and restarts id assignment. Only administrators
// may call it; the check happens before storage is touched.
func (r *Repository) Clear(ctx context.Context, session auth.Session) error {
	if err := auth.RequireAdmin(session); err != nil {
		return err
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Clear", trace.WithAttributes(attribute.String("session.username", session.Username)))
	defer span.End()

	var err error
	switch r.writer.Dialect().Name() {
	case dialect.PG:
		_, err = r.writer.ExecContext(ctx, "TRUNCATE TABLE orders RESTART IDENTITY")
	case dialect.MySQL:
		_, err = r.writer.ExecContext(ctx, "TRUNCATE TABLE orders")
	default:
		err = r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewDelete().Model((*entity.Order)(nil)).Where("1 = 1").Exec(ctx); err != nil {
				return err
			}
			// Tables created without AUTOINCREMENT have no sequence row.
			var n int
			if err := tx.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE name = 'sqlite_sequence'").Scan(&n); err != nil || n == 0 {
				return err
			}
			_, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = 'orders'")
			return err
		})
	}
	if err != nil {
		return fail(span, "clear failed", classify(err))
	}
	return nil
}

// ledgerColumns selects every order column. Rows written before the money
// and paid-date columns were NOT NULL may hold NULLs.
func ledgerColumns(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Column("id", "order_date", "customer_name", "product_name", "quantity").
		ColumnExpr("COALESCE(o.price, 0) AS price").
		ColumnExpr("COALESCE(o.total_paid, 0) AS total_paid").
		ColumnExpr("COALESCE(o.pending_balance_fixed, 0) AS pending_balance_fixed").
		ColumnExpr("COALESCE(o.total_paid_date, 0) AS total_paid_date")
}

func fail(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}

// classify tags errors that mean the store itself cannot be reached or has
// no orders table.
func classify(err error) error {
	if err == nil {
		return nil
	}
	unavailable := errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		unavailable = true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
			unavailable = true
		case sqlite3.ErrError:
			unavailable = strings.Contains(liteErr.Error(), "no such table")
		}
	}

	if unavailable {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return err
}
