package workers

import (
	"context"
	"log/slog"

	"gatekeeper/contexts/commerce/order-service/domain/entities"
	"gatekeeper/contexts/commerce/order-service/ports"
	"gatekeeper/internal/platform/messaging"
	"gatekeeper/internal/shared/events"
)

// ConsumerGroup subscribes this context to the lifecycle topic independently
// of every other consuming context.
const ConsumerGroup = "order-service-cg"

// RegistrationConsumer initializes a buyer account when a new identity is
// registered. Idempotent on eventId via the repository's atomic ledger step.
type RegistrationConsumer struct {
	Accounts ports.AccountRepository
	Logger   *slog.Logger
}

func (c RegistrationConsumer) Handler() messaging.Handler {
	return func(ctx context.Context, _ []byte, value []byte) error {
		return c.Handle(ctx, value)
	}
}

func (c RegistrationConsumer) Handle(ctx context.Context, value []byte) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	event, err := events.DecodeUserRegistered(value)
	if err != nil {
		logger.Error("registration event rejected",
			"event", "order_registration_event_rejected",
			"module", "commerce/order-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	account := entities.BuyerAccount{
		UserID:    event.UserID,
		Username:  event.Username,
		Email:     event.Email,
		Status:    entities.AccountStatusActive,
		CreatedAt: event.CreatedAt,
	}
	applied, err := c.Accounts.ApplyRegistration(ctx, event.EventID, account)
	if err != nil {
		logger.Error("buyer account initialization failed",
			"event", "order_buyer_account_init_failed",
			"module", "commerce/order-service",
			"layer", "worker",
			"event_id", event.EventID,
			"user_id", event.UserID,
			"error", err.Error(),
		)
		return err
	}
	if !applied {
		logger.Info("duplicate registration event skipped",
			"event", "order_registration_event_duplicate",
			"module", "commerce/order-service",
			"layer", "worker",
			"event_id", event.EventID,
			"user_id", event.UserID,
		)
		return nil
	}

	logger.Info("buyer account initialized",
		"event", "order_buyer_account_initialized",
		"module", "commerce/order-service",
		"layer", "worker",
		"event_id", event.EventID,
		"user_id", event.UserID,
	)
	return nil
}
