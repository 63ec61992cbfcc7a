package tokenservice

import (
	"crypto/rsa"
	"log/slog"

	httpadapter "gatekeeper/contexts/identity-access/token-service/adapters/http"
	"gatekeeper/contexts/identity-access/token-service/application"
	"gatekeeper/contexts/identity-access/token-service/ports"
)

// Module is the token-service composition surface. Every service in the
// deployment builds one: the issuer with a full key pair, everyone else with
// the public key only.
type Module struct {
	Codec      *application.Codec
	Middleware httpadapter.Middleware
}

type Dependencies struct {
	Issuer   string
	Audience string
	Public   *rsa.PublicKey
	Private  *rsa.PrivateKey
	Clock    ports.Clock
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) (Module, error) {
	codec, err := application.NewCodec(deps.Issuer, deps.Audience, deps.Public, deps.Private, deps.Clock)
	if err != nil {
		return Module{}, err
	}
	return Module{
		Codec: codec,
		Middleware: httpadapter.Middleware{
			Codec:  codec,
			Logger: deps.Logger,
		},
	}, nil
}
