// Package ledger consumes ledger events for audit logging.
package ledger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/furni4/internal/messaging"
	"github.com/Additional-Code/furni4/internal/observability"
	ordersvc "github.com/Additional-Code/furni4/internal/service/order"
	"github.com/Additional-Code/furni4/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/furni4/worker/ledger")

// Module registers the audit handler for every ledger event.
var Module = fx.Module("worker_ledger",
	fx.Provide(
		fx.Annotate(
			NewAuditHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewAuditHandler logs each ledger event and counts it by type.
func NewAuditHandler(logger *zap.Logger, metrics *observability.Instruments) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.ledger.audit", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		event, err := ordersvc.DecodeLedgerEvent(msg.Value)
		if err != nil {
			logger.Error("failed to decode ledger event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		fields := []zap.Field{
			zap.String("type", event.Type),
			zap.Time("occurred_at", event.OccurredAt),
		}
		if event.OrderID != 0 {
			fields = append(fields,
				zap.Int64("order_id", event.OrderID),
				zap.String("pending_balance", event.PendingBalance.StringFixed(2)),
			)
		}
		if event.ProductName != "" {
			fields = append(fields, zap.String("product", event.ProductName))
		}
		logger.Info("ledger event", fields...)

		metrics.EventsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", event.Type)))
		return nil
	}

	return worker.HandlerRegistration{
		Event:   worker.AnyEvent,
		Handler: handler,
	}
}
