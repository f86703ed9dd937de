package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/furni4/pkg/errorbank"
)

// retryAfterSeconds is advertised on responses whose error kind is retryable,
// such as an unreachable order store.
const retryAfterSeconds = "5"

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorBody     `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Builder helps construct consistent HTTP responses.
type Builder struct {
	ctx    echo.Context
	status int
	data   any
	err    error
	meta   map[string]any
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithMeta appends auxiliary metadata to the response.
func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	return b.ctx.JSON(b.status, Envelope{Success: true, Data: b.data, Meta: b.meta})
}

func (b *Builder) buildError() error {
	appErr := FromError(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}
	if appErr.Kind() == errorbank.KindUnauthorized {
		b.ctx.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	if appErr.Retryable() {
		b.ctx.Response().Header().Set(echo.HeaderRetryAfter, retryAfterSeconds)
	}

	return b.ctx.JSON(status, Envelope{
		Error: &ErrorBody{
			Kind:    string(appErr.Kind()),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
		Meta: b.meta,
	})
}

// FromError converts router errors such as unknown routes into application
// errors so they render in the same envelope.
func FromError(err error) *errorbank.AppError {
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		return errorbank.From(err)
	}
	message := http.StatusText(httpErr.Code)
	if m, ok := httpErr.Message.(string); ok && m != "" {
		message = m
	}
	switch httpErr.Code {
	case http.StatusBadRequest:
		return errorbank.BadRequest(message)
	case http.StatusUnauthorized:
		return errorbank.Unauthorized(message)
	case http.StatusForbidden:
		return errorbank.Forbidden(message)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return errorbank.NotFound(message)
	case http.StatusServiceUnavailable:
		return errorbank.Unavailable(message)
	default:
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
