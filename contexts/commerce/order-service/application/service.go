package application

import (
	"context"
	"log/slog"

	"gatekeeper/contexts/commerce/order-service/domain/entities"
	domainerrors "gatekeeper/contexts/commerce/order-service/domain/errors"
	"gatekeeper/contexts/commerce/order-service/ports"
)

// Service exposes buyer-account reads. Account creation is event-driven and
// lives in the registration consumer.
type Service struct {
	Accounts ports.AccountRepository
	Logger   *slog.Logger
}

func (s Service) GetAccount(ctx context.Context, userID int64) (entities.BuyerAccount, error) {
	if userID <= 0 {
		return entities.BuyerAccount{}, domainerrors.ErrInvalidUser
	}
	return s.Accounts.GetByID(ctx, userID)
}

func (s Service) ListAccounts(ctx context.Context) ([]entities.BuyerAccount, error) {
	return s.Accounts.List(ctx)
}
