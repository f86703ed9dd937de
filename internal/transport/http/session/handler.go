package session

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/furni4/internal/auth"
	"github.com/Additional-Code/furni4/internal/dto"
	"github.com/Additional-Code/furni4/internal/presentation/http/response"
	"github.com/Additional-Code/furni4/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/furni4/transport/http/session")

// Handler exposes login over HTTP.
type Handler struct {
	verifier *auth.Verifier
	issuer   *auth.Issuer
	logger   *zap.Logger
}

// NewHandler constructs a session Handler.
func NewHandler(verifier *auth.Verifier, issuer *auth.Issuer, logger *zap.Logger) *Handler {
	return &Handler{verifier: verifier, issuer: issuer, logger: logger}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/auth/login", h.login)
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload dto.LoginRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "auth.login", trace.WithAttributes(attribute.String("user.name", payload.Username)))
	defer span.End()

	s, err := h.verifier.Authenticate(ctx, payload.Username, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.Info("login rejected", zap.String("username", payload.Username))
		return b.WithError(errorbank.Unauthorized("invalid username or password")).Build()
	}
	if err != nil {
		return b.WithError(errorbank.Unavailable("credential store unavailable", errorbank.WithCause(err))).Build()
	}

	token, s, err := h.issuer.Issue(s)
	if err != nil {
		return b.WithError(errorbank.Internal("failed to issue token", errorbank.WithCause(err))).Build()
	}

	return b.WithStatus(http.StatusOK).WithData(dto.LoginResponse{
		Token:     token,
		Username:  s.Username,
		Role:      s.Role,
		ExpiresAt: s.ExpiresAt,
	}).Build()
}
