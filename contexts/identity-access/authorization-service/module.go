package authorizationservice

import (
	"log/slog"

	httpadapter "gatekeeper/contexts/identity-access/authorization-service/adapters/http"
	"gatekeeper/contexts/identity-access/authorization-service/adapters/memory"
	"gatekeeper/contexts/identity-access/authorization-service/application"
	"gatekeeper/contexts/identity-access/authorization-service/application/workers"
	"gatekeeper/contexts/identity-access/authorization-service/ports"
)

// Module is the authorization-service composition surface. Consumer is wired
// by the worker binary; Handler by the API binary.
type Module struct {
	Handler  httpadapter.Handler
	Service  application.Service
	Consumer workers.RegistrationConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Roles  ports.RoleRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Roles:  deps.Roles,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
		Consumer: workers.RegistrationConsumer{
			Roles:  deps.Roles,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Roles:  store,
		Clock:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
