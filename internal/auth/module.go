package auth

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/furni4/internal/repository/user"
)

// Module provides the verifier and token issuer to Fx.
var Module = fx.Options(
	fx.Provide(
		func(repo *user.Repository) CredentialStore { return repo },
		NewVerifier,
		NewIssuer,
	),
)
