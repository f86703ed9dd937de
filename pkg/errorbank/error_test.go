package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKindMappings(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{Unauthorized("who"), http.StatusUnauthorized, codes.Unauthenticated},
		{Forbidden("no"), http.StatusForbidden, codes.PermissionDenied},
		{Conflict("dup"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("gone"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("odd"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Unavailable("down"), http.StatusServiceUnavailable, codes.Unavailable},
		{Internal("boom"), http.StatusInternalServerError, codes.Internal},
		{New(Kind("teapot"), "odd"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			if got := tt.err.StatusCode(); got != tt.status {
				t.Errorf("StatusCode() = %d, want %d", got, tt.status)
			}
			if got := tt.err.GRPCCode(); got != tt.code {
				t.Errorf("GRPCCode() = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("disk on fire")
	appErr := From(cause)
	if appErr.Kind() != KindInternal {
		t.Fatalf("kind = %s, want internal", appErr.Kind())
	}
	if !errors.Is(appErr, cause) {
		t.Fatalf("expected cause to be unwrappable")
	}
	if From(nil) != nil {
		t.Fatalf("From(nil) should be nil")
	}
}

func TestFromKeepsWrappedAppError(t *testing.T) {
	original := NotFound("order not found", WithDetail("id", 7))
	wrapped := fmt.Errorf("loading: %w", original)

	if got := From(wrapped); got != original {
		t.Fatalf("expected the original AppError back")
	}
	if !IsKind(wrapped, KindNotFound) {
		t.Fatalf("IsKind should see through wrapping")
	}
	if IsKind(wrapped, KindInternal) {
		t.Fatalf("IsKind matched the wrong kind")
	}
	if original.Details()["id"] != 7 {
		t.Fatalf("detail not recorded: %v", original.Details())
	}
}

func TestOnlyUnavailableIsRetryable(t *testing.T) {
	for kind := range mappings {
		if got := New(kind, "").Retryable(); got != (kind == KindUnavailable) {
			t.Errorf("%s Retryable() = %v", kind, got)
		}
	}
}

func TestGRPCStatusCarriesFieldViolations(t *testing.T) {
	err := BadRequest("invalid order", WithDetails(map[string]any{
		"quantity":      "must be at least 1",
		"customer_name": "is required",
	}))
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected a gRPC status")
	}
	if st.Code() != codes.InvalidArgument || st.Message() != "invalid order" {
		t.Fatalf("unexpected status %s %q", st.Code(), st.Message())
	}

	details := st.Details()
	if len(details) != 1 {
		t.Fatalf("expected one detail, got %d", len(details))
	}
	br, ok := details[0].(*errdetails.BadRequest)
	if !ok {
		t.Fatalf("unexpected detail %T", details[0])
	}
	violations := br.GetFieldViolations()
	if len(violations) != 2 || violations[0].GetField() != "customer_name" || violations[1].GetDescription() != "must be at least 1" {
		t.Fatalf("unexpected violations %v", violations)
	}

	plain := NotFound("order not found").GRPCStatus()
	if plain.Code() != codes.NotFound || len(plain.Details()) != 0 {
		t.Fatalf("unexpected status for not_found: %v", plain)
	}
}
