package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/furni4/internal/auth"
	"github.com/Additional-Code/furni4/internal/bootstrap"
	"github.com/Additional-Code/furni4/internal/cache"
	"github.com/Additional-Code/furni4/internal/config"
	"github.com/Additional-Code/furni4/internal/database"
	"github.com/Additional-Code/furni4/internal/logger"
	"github.com/Additional-Code/furni4/internal/messaging"
	"github.com/Additional-Code/furni4/internal/migration"
	"github.com/Additional-Code/furni4/internal/observability"
	repositoryorder "github.com/Additional-Code/furni4/internal/repository/order"
	repositoryuser "github.com/Additional-Code/furni4/internal/repository/user"
	grpcserver "github.com/Additional-Code/furni4/internal/server/grpc"
	httpserver "github.com/Additional-Code/furni4/internal/server/http"
	serviceorder "github.com/Additional-Code/furni4/internal/service/order"
	transporthttp "github.com/Additional-Code/furni4/internal/transport/http"
	"github.com/Additional-Code/furni4/internal/worker"
	workerledger "github.com/Additional-Code/furni4/internal/worker/ledger"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	bootstrap.Module,
	database.Module,
	migration.Module,
	cache.Module,
	messaging.Module,
	repositoryorder.Module,
	repositoryuser.Module,
	auth.Module,
	serviceorder.Module,
)

// HTTP serves the ledger API and gRPC health on top of the core modules.
// Pending migrations are applied before either server starts.
var HTTP = fx.Options(
	Core,
	migration.OnStart,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker consumes ledger events.
var Worker = fx.Options(
	Core,
	migration.OnStart,
	worker.Module,
	workerledger.Module,
)

// Module is the default application wiring.
var Module = HTTP
