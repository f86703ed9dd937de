package user

import "go.uber.org/fx"

// Module provides the credential repository to Fx.
var Module = fx.Provide(NewRepository)
