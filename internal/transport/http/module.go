package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/Additional-Code/furni4/internal/transport/http/order"
	sessiontransport "github.com/Additional-Code/furni4/internal/transport/http/session"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	sessiontransport.Module,
	ordertransport.Module,
)
