package order_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/furni4/internal/auth"
	"github.com/Additional-Code/furni4/internal/cache"
	"github.com/Additional-Code/furni4/internal/entity"
	"github.com/Additional-Code/furni4/internal/messaging"
	"github.com/Additional-Code/furni4/internal/report"
	repo "github.com/Additional-Code/furni4/internal/repository/order"
	ordersvc "github.com/Additional-Code/furni4/internal/service/order"
	"github.com/Additional-Code/furni4/internal/testutil"
	"github.com/Additional-Code/furni4/pkg/errorbank"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: make(map[string][]byte)} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memCache) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.entries[key]), 10, 64)
	n++
	m.entries[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// gatedCache parks the first Set until release is closed.
type gatedCache struct {
	*memCache
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.memCache.Set(ctx, key, value, ttl)
}

type recorder struct {
	mu       sync.Mutex
	messages []messaging.Message
}

func (r *recorder) Publish(_ context.Context, msg messaging.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recorder) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (r *recorder) Topic() string { return "ledger.events" }

func (r *recorder) events(t *testing.T) []ordersvc.LedgerEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ordersvc.LedgerEvent, 0, len(r.messages))
	for _, m := range r.messages {
		e, err := ordersvc.DecodeLedgerEvent(m.Value)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if m.Headers[messaging.EventTypeHeader] != e.Type {
			t.Fatalf("header %q does not match payload type %q", m.Headers[messaging.EventTypeHeader], e.Type)
		}
		out = append(out, e)
	}
	return out
}

type fixture struct {
	svc   *ordersvc.Service
	repo  *repo.Repository
	cache *memCache
	bus   *recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testutil.Config(t)
	r := repo.NewRepository(testutil.Migrated(t, cfg))
	c := newMemCache()
	bus := &recorder{}
	svc := ordersvc.NewService(ordersvc.Params{
		Repository: r,
		Cache:      c,
		Config:     cfg,
		Logger:     zaptest.NewLogger(t),
		Publisher:  bus,
	})
	return fixture{svc: svc, repo: r, cache: c, bus: bus}
}

func newOrder(product string, day int, paid string) *entity.Order {
	return &entity.Order{
		OrderDate:      entity.NewDate(2024, time.June, day),
		CustomerName:   "Customer",
		ProductName:    product,
		Quantity:       1,
		Price:          decimal.RequireFromString(paid),
		TotalPaid:      decimal.RequireFromString(paid),
		PendingBalance: decimal.Zero,
		TotalPaidDate:  entity.UnsetPaidDate,
	}
}

func TestCreateInvalidatesSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, newOrder("Chair", 1, "100")); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := f.svc.List(ctx)
	if err != nil || len(first) != 1 {
		t.Fatalf("list: %v (%d orders)", err, len(first))
	}
	if !f.cache.has("orders:all:1") {
		t.Fatalf("snapshot not cached")
	}

	if _, err := f.svc.Create(ctx, newOrder("Table", 2, "150")); err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("stale snapshot served: %d orders", len(second))
	}
	if f.cache.has("orders:all:1") || !f.cache.has("orders:all:2") {
		t.Fatalf("unexpected cache keys after two creates")
	}
}

func TestSnapshotFillRacingCreateIsNotServed(t *testing.T) {
	cfg := testutil.Config(t)
	r := repo.NewRepository(testutil.Migrated(t, cfg))
	gate := &gatedCache{
		memCache: newMemCache(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	svc := ordersvc.NewService(ordersvc.Params{
		Repository: r,
		Cache:      gate,
		Config:     cfg,
		Logger:     zaptest.NewLogger(t),
		Publisher:  messaging.Noop("ledger.events"),
	})
	ctx := context.Background()

	type result struct {
		orders []entity.Order
		err    error
	}
	done := make(chan result, 1)
	go func() {
		orders, err := svc.List(ctx)
		done <- result{orders, err}
	}()

	// The list has read the empty ledger and is about to fill the cache.
	<-gate.entered
	if _, err := svc.Create(ctx, newOrder("Chair", 1, "100")); err != nil {
		t.Fatalf("create: %v", err)
	}
	close(gate.release)

	first := <-done
	if first.err != nil {
		t.Fatalf("list: %v", first.err)
	}
	if len(first.orders) != 0 {
		t.Fatalf("racing list saw %d orders", len(first.orders))
	}

	got, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("pre-create snapshot served after commit: %d orders", len(got))
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx, newOrder("Chair", 1, "100"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.UpdateBalance(ctx, id, decimal.RequireFromString("20")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := f.svc.Clear(ctx, auth.Session{Username: "admin", Role: auth.RoleAdmin}); err != nil {
		t.Fatalf("clear: %v", err)
	}

	events := f.bus.events(t)
	want := []string{ordersvc.EventOrderCreated, ordersvc.EventBalanceUpdated, ordersvc.EventOrdersCleared}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Fatalf("event %d type = %q, want %q", i, e.Type, want[i])
		}
		if e.OccurredAt.IsZero() {
			t.Fatalf("event %d missing timestamp", i)
		}
	}
	if events[0].OrderID != id || events[0].ProductName != "Chair" {
		t.Fatalf("unexpected created event %+v", events[0])
	}
	if !events[1].PendingBalance.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("unexpected balance event %+v", events[1])
	}
	if gen := string(f.cache.entries["orders:generation"]); gen != "3" {
		t.Fatalf("expected generation 3 after three mutations, got %q", gen)
	}
}

func TestErrorTranslation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := newOrder("Chair", 1, "100")
	bad.Quantity = 0
	_, err := f.svc.Create(ctx, bad)
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad_request, got %v", err)
	}
	if _, ok := errorbank.From(err).Details()["quantity"]; !ok {
		t.Fatalf("field details missing: %v", errorbank.From(err).Details())
	}

	if err := f.svc.UpdateBalance(ctx, 77, decimal.NewFromInt(1)); !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}

	if err := f.svc.Clear(ctx, auth.Session{Username: "vendor", Role: auth.RoleVendor}); !errorbank.IsKind(err, errorbank.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if n := len(f.bus.events(t)); n != 0 {
		t.Fatalf("failed mutations published %d events", n)
	}
}

func TestStorageUnavailable(t *testing.T) {
	cfg := testutil.Config(t)
	svc := ordersvc.NewService(ordersvc.Params{
		Repository: repo.NewRepository(testutil.Open(t, cfg)),
		Cache:      cache.Noop(),
		Config:     cfg,
		Logger:     zaptest.NewLogger(t),
		Publisher:  messaging.Noop("ledger.events"),
	})
	_, err := svc.List(context.Background())
	if !errorbank.IsKind(err, errorbank.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if !errors.Is(err, repo.ErrStorageUnavailable) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestReportAggregatesFilteredOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, o := range []*entity.Order{
		newOrder("Chair", 1, "100"),
		newOrder("Table", 5, "150"),
		newOrder("Chair", 9, "40"),
	} {
		if _, err := f.svc.Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := f.svc.Report(ctx, report.Criteria{Product: report.AllProducts})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !all.Criteria.Start.Equal(entity.NewDate(2024, time.June, 1)) || !all.Criteria.End.Equal(entity.NewDate(2024, time.June, 9)) {
		t.Fatalf("open bounds not closed: %+v", all.Criteria)
	}
	totals := report.AsMap(all.Products)
	if !totals["Chair"].Equal(decimal.NewFromInt(140)) || !totals["Table"].Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected totals %v", totals)
	}
	if all.Summary.Orders != 3 {
		t.Fatalf("summary orders = %d", all.Summary.Orders)
	}

	c, err := report.ParseCriteria("2024-06-01", "2024-06-05", "Chair")
	if err != nil {
		t.Fatalf("criteria: %v", err)
	}
	chairs, err := f.svc.Query(ctx, c)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(chairs) != 1 || chairs[0].ProductName != "Chair" {
		t.Fatalf("unexpected query result %+v", chairs)
	}

	products, err := f.svc.Products(ctx)
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(products) != 2 || products[0] != "Chair" || products[1] != "Table" {
		t.Fatalf("products = %v", products)
	}
}
