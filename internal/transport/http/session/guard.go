package session

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/furni4/internal/auth"
	"github.com/Additional-Code/furni4/internal/presentation/http/response"
	"github.com/Additional-Code/furni4/pkg/errorbank"
)

const contextKey = "furni4.session"

// Guard authenticates requests carrying a bearer token.
type Guard struct {
	issuer *auth.Issuer
}

// NewGuard builds a Guard around the token issuer.
func NewGuard(issuer *auth.Issuer) *Guard {
	return &Guard{issuer: issuer}
}

// Middleware rejects requests without a valid session and stores the session
// on the echo context for handlers.
func (g *Guard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			s, err := g.issuer.Parse(token)
			if err != nil {
				return response.New(c).WithError(errorbank.Unauthorized("authentication required", errorbank.WithCause(err))).Build()
			}
			c.Set(contextKey, s)
			return next(c)
		}
	}
}

// FromContext returns the session stored by the guard. Unauthenticated
// requests yield the zero Session, which is never an administrator.
func FromContext(c echo.Context) auth.Session {
	s, _ := c.Get(contextKey).(auth.Session)
	return s
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
