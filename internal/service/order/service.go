package order

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/furni4/internal/auth"
	"github.com/Additional-Code/furni4/internal/cache"
	"github.com/Additional-Code/furni4/internal/config"
	"github.com/Additional-Code/furni4/internal/entity"
	"github.com/Additional-Code/furni4/internal/messaging"
	"github.com/Additional-Code/furni4/internal/observability"
	"github.com/Additional-Code/furni4/internal/report"
	repo "github.com/Additional-Code/furni4/internal/repository/order"
	"github.com/Additional-Code/furni4/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/furni4/service/order")

// Snapshots are keyed by a generation that every mutation bumps. A fill
// racing a mutation then lands under a generation nobody reads.
const (
	snapshotPrefix = "orders:all:"
	generationKey  = "orders:generation"
)

// Service fronts the order repository for transports and the CLI. It keeps
// the cached order snapshot coherent and announces every mutation.
type Service struct {
	repo      *repo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	metrics   *observability.Instruments
	now       func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
	Metrics    *observability.Instruments `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	metrics := p.Metrics
	if metrics == nil {
		metrics = observability.NopInstruments()
	}

	return &Service{
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Report is the aggregation of a filtered order set.
type Report struct {
	Criteria report.Criteria       `json:"criteria"`
	Products []report.ProductTotal `json:"products"`
	Summary  report.Summary        `json:"summary"`
}

// List returns every order, served from the cache when possible.
func (s *Service) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	// The generation must be read before the store.
	key, cacheable := s.snapshotKey(ctx)
	if cacheable {
		var orders []entity.Order
		err := cache.GetJSON(ctx, s.cache, key, &orders)
		hit := err == nil
		span.SetAttributes(attribute.Bool("cache.hit", hit))
		s.metrics.SnapshotLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cache.hit", hit)))
		if hit {
			return orders, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("orders cache read failed", zap.Error(err))
		}
	}

	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.translate(span, "failed to load orders", err)
	}

	if cacheable {
		if err := cache.SetJSON(ctx, s.cache, key, orders, s.cacheTTL); err != nil {
			s.logger.Warn("orders cache write failed", zap.Error(err))
		}
	}
	return orders, nil
}

// snapshotKey resolves the key of the current snapshot. It reports false
// when the generation cannot be read, in which case the cache is bypassed.
func (s *Service) snapshotKey(ctx context.Context) (string, bool) {
	raw, err := s.cache.Get(ctx, generationKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return snapshotPrefix + "0", true
	}
	if err != nil {
		s.logger.Warn("orders cache generation read failed", zap.Error(err))
		return "", false
	}
	gen, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		s.logger.Warn("orders cache generation is not a number", zap.ByteString("value", raw))
		return "", false
	}
	return snapshotPrefix + strconv.FormatInt(gen, 10), true
}

// Get reads one order straight from the store.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.translate(span, "failed to load order", err)
	}
	return order, nil
}

// Query returns the orders matching c in id order.
func (s *Service) Query(ctx context.Context, c report.Criteria) ([]entity.Order, error) {
	orders, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return report.Filter(orders, c), nil
}

// Report filters the ledger and aggregates the result. Open date bounds are
// closed with the span of the whole ledger so the response states the range
// actually covered.
func (s *Service) Report(ctx context.Context, c report.Criteria) (Report, error) {
	orders, err := s.List(ctx)
	if err != nil {
		return Report{}, err
	}
	c = c.WithDefaults(orders)
	matched := report.Filter(orders, c)
	return Report{
		Criteria: c,
		Products: report.ByProduct(matched),
		Summary:  report.Totals(matched),
	}, nil
}

// Products lists the distinct product names in the ledger.
func (s *Service) Products(ctx context.Context) ([]string, error) {
	orders, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return report.Products(orders), nil
}

// Create records a new order and returns its id.
func (s *Service) Create(ctx context.Context, order *entity.Order) (int64, error) {
	if order == nil {
		return 0, errorbank.BadRequest("order payload is required")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("order.product", order.ProductName)))
	defer span.End()

	id, err := s.repo.Insert(ctx, order)
	if err != nil {
		return 0, s.translate(span, "failed to create order", err)
	}

	s.invalidate(ctx)
	s.publish(ctx, LedgerEvent{
		Type:           EventOrderCreated,
		OrderID:        id,
		ProductName:    order.ProductName,
		PendingBalance: order.PendingBalance,
	})
	return id, nil
}

// UpdateBalance replaces the pending balance of order id.
func (s *Service) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateBalance", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.repo.UpdateBalance(ctx, id, balance); err != nil {
		return s.translate(span, "failed to update balance", err)
	}

	s.invalidate(ctx)
	s.publish(ctx, LedgerEvent{
		Type:           EventBalanceUpdated,
		OrderID:        id,
		PendingBalance: balance,
	})
	return nil
}

// Clear empties the ledger. The session must belong to an administrator.
func (s *Service) Clear(ctx context.Context, session auth.Session) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Clear", trace.WithAttributes(attribute.String("session.username", session.Username)))
	defer span.End()

	if err := s.repo.Clear(ctx, session); err != nil {
		return s.translate(span, "failed to clear orders", err)
	}

	s.logger.Warn("ledger cleared", zap.String("username", session.Username))
	s.invalidate(ctx)
	s.publish(ctx, LedgerEvent{Type: EventOrdersCleared})
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	gen, err := s.cache.Incr(ctx, generationKey)
	if err != nil {
		s.logger.Warn("orders cache invalidation failed", zap.Error(err))
		return
	}
	// The previous snapshot is unreachable now; drop it before its TTL does.
	if err := s.cache.Delete(ctx, snapshotPrefix+strconv.FormatInt(gen-1, 10)); err != nil {
		s.logger.Warn("orders cache cleanup failed", zap.Error(err))
	}
}

// publish is best effort; the mutation has already committed.
func (s *Service) publish(ctx context.Context, event LedgerEvent) {
	event.OccurredAt = s.now().UTC()
	s.metrics.Mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", event.Type)))

	payload, err := event.Encode()
	if err != nil {
		s.logger.Error("encode ledger event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	key := "ledger"
	if event.OrderID != 0 {
		key = strconv.FormatInt(event.OrderID, 10)
	}
	msg := messaging.Message{
		Key:     []byte(key),
		Value:   payload,
		Headers: map[string]string{messaging.EventTypeHeader: event.Type},
		Time:    event.OccurredAt,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish ledger event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (s *Service) translate(span trace.Span, message string, err error) error {
	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorbank.BadRequest("invalid order", errorbank.WithDetails(verr.Details()))
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("order not found")
	case errors.Is(err, auth.ErrForbidden):
		return errorbank.Forbidden("administrator role required")
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	if errors.Is(err, repo.ErrStorageUnavailable) {
		return errorbank.Unavailable("order storage unavailable", errorbank.WithCause(err))
	}
	return errorbank.Internal(message, errorbank.WithCause(err))
}
