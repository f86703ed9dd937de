package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/furni4/pkg/errorbank"
)

func render(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := fn(c); err != nil {
		t.Fatalf("render: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec, env
}

func TestBuildSuccess(t *testing.T) {
	rec, env := render(t, func(c echo.Context) error {
		return New(c).WithStatus(http.StatusCreated).WithData(map[string]int{"id": 1}).WithMeta("count", 1).Build()
	})
	if rec.Code != http.StatusCreated || !env.Success || env.Error != nil || env.Meta["count"] != float64(1) {
		t.Fatalf("unexpected response %d %+v", rec.Code, env)
	}
}

func TestBuildError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   errorbank.Kind
	}{
		{"app error", errorbank.BadRequest("invalid order", errorbank.WithDetail("quantity", "must be at least 1")), http.StatusBadRequest, errorbank.KindBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, errorbank.KindInternal},
		{"unknown route", echo.ErrNotFound, http.StatusNotFound, errorbank.KindNotFound},
		{"unauthorized", errorbank.Unauthorized("authentication required"), http.StatusUnauthorized, errorbank.KindUnauthorized},
		{"store down", errorbank.Unavailable("order storage unavailable"), http.StatusServiceUnavailable, errorbank.KindUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := render(t, func(c echo.Context) error {
				return New(c).WithError(tc.err).Build()
			})
			if rec.Code != tc.status || env.Success || env.Error == nil || env.Error.Kind != string(tc.kind) {
				t.Fatalf("unexpected response %d %+v", rec.Code, env)
			}
			if tc.kind == errorbank.KindUnauthorized && rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
				t.Fatalf("missing challenge header")
			}
			retry := rec.Header().Get(echo.HeaderRetryAfter)
			if (tc.kind == errorbank.KindUnavailable) != (retry != "") {
				t.Fatalf("Retry-After = %q for kind %s", retry, tc.kind)
			}
		})
	}
}
