package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/furni4/internal/dto"
	"github.com/Additional-Code/furni4/internal/entity"
	"github.com/Additional-Code/furni4/internal/presentation/http/response"
	"github.com/Additional-Code/furni4/internal/report"
	service "github.com/Additional-Code/furni4/internal/service/order"
	"github.com/Additional-Code/furni4/internal/transport/http/session"
	"github.com/Additional-Code/furni4/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/furni4/transport/http/order")

// Handler exposes ledger endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the order routes behind the session guard.
func Register(e *echo.Echo, h *Handler, guard *session.Guard) {
	g := e.Group("/orders", guard.Middleware())
	g.GET("", h.list)
	g.GET("/products", h.products)
	g.GET("/report", h.report)
	g.GET("/:id", h.get)
	g.POST("", h.create)
	g.PATCH("/:id/balance", h.updateBalance)
	g.DELETE("", h.clear)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	criteria, err := criteriaFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list", trace.WithAttributes(attribute.String("filter.product", criteria.Product)))
	defer span.End()

	orders, err := h.svc.Query(ctx, criteria)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponses(orders)).WithMeta("count", len(orders)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponse(*order)).Build()
}

func (h *Handler) products(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.products")
	defer span.End()

	products, err := h.svc.Products(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(products).Build()
}

func (h *Handler) report(c echo.Context) error {
	b := response.New(c)

	criteria, err := criteriaFrom(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.report")
	defer span.End()

	rep, err := h.svc.Report(ctx, criteria)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(rep).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	order, err := payload.Order()
	if err != nil {
		return b.WithError(validationError(err)).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(attribute.String("order.product", order.ProductName)))
	defer span.End()

	if _, err := h.svc.Create(ctx, order); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(*order)).Build()
}

func (h *Handler) updateBalance(c echo.Context) error {
	b := response.New(c)

	id, err := orderID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.UpdateBalanceRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.PendingBalance == nil {
		return b.WithError(errorbank.BadRequest("invalid order", errorbank.WithDetail("pending_balance", "is required"))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateBalance", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.UpdateBalance(ctx, id, *payload.PendingBalance); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]any{"id": id, "pending_balance": *payload.PendingBalance}).Build()
}

func (h *Handler) clear(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.clear")
	defer span.End()

	if err := h.svc.Clear(ctx, session.FromContext(c)); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]bool{"cleared": true}).Build()
}

func orderID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id")
	}
	return id, nil
}

func criteriaFrom(c echo.Context) (report.Criteria, error) {
	criteria, err := report.ParseCriteria(c.QueryParam("start"), c.QueryParam("end"), c.QueryParam("product"))
	if err != nil {
		return report.Criteria{}, validationError(err)
	}
	return criteria, nil
}

func validationError(err error) error {
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		return errorbank.BadRequest("invalid request", errorbank.WithDetails(verr.Details()))
	}
	return errorbank.BadRequest(err.Error())
}
