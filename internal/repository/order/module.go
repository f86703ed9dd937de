package order

import "go.uber.org/fx"

// Module provides the ledger's order store.
var Module = fx.Options(
	fx.Provide(NewRepository),
)
