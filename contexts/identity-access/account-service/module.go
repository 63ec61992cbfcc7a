package accountservice

import (
	"log/slog"
	"time"

	httpadapter "gatekeeper/contexts/identity-access/account-service/adapters/http"
	"gatekeeper/contexts/identity-access/account-service/adapters/memory"
	"gatekeeper/contexts/identity-access/account-service/application"
	"gatekeeper/contexts/identity-access/account-service/ports"
)

// Module is the account-service composition surface. Runtime wiring consumes
// Handler; Store is exposed for tests and in-memory bootstraps.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Identity    ports.IdentityProvider
	Profiles    ports.ProfileRepository
	Tokens      ports.TokenCodec
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	accessTTL := deps.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	refreshTTL := deps.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}

	service := application.Service{
		Identity:    deps.Identity,
		Profiles:    deps.Profiles,
		Tokens:      deps.Tokens,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		AccessTTL:   accessTTL,
		RefreshTTL:  refreshTTL,
		Logger:      deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the service against the in-memory store; the
// identity provider and token codec still come from the caller.
func NewInMemoryModule(identity ports.IdentityProvider, tokens ports.TokenCodec, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Identity:    identity,
		Profiles:    store,
		Tokens:      tokens,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
