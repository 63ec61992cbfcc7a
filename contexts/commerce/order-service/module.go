package orderservice

import (
	"log/slog"

	httpadapter "gatekeeper/contexts/commerce/order-service/adapters/http"
	"gatekeeper/contexts/commerce/order-service/adapters/memory"
	"gatekeeper/contexts/commerce/order-service/application"
	"gatekeeper/contexts/commerce/order-service/application/workers"
	"gatekeeper/contexts/commerce/order-service/ports"
)

// Module is the order-service composition surface.
type Module struct {
	Handler  httpadapter.Handler
	Service  application.Service
	Consumer workers.RegistrationConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Accounts ports.AccountRepository
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Accounts: deps.Accounts,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
		Consumer: workers.RegistrationConsumer{
			Accounts: deps.Accounts,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Accounts: store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
