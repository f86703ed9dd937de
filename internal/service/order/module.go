package order

import "go.uber.org/fx"

// Module provides the ledger service; handlers, the CLI and the seeder all
// go through it or the repository beneath it.
var Module = fx.Options(
	fx.Provide(NewService),
)
