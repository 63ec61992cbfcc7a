package workers

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/contexts/identity-access/authorization-service/domain/entities"
	"gatekeeper/contexts/identity-access/authorization-service/ports"
	"gatekeeper/internal/platform/messaging"
	"gatekeeper/internal/shared/events"
)

// ConsumerGroup is this context's subscription to the lifecycle topic. Each
// consuming context uses its own group so delivery cursors stay independent.
const ConsumerGroup = "authz-service-cg"

const grantedBySystem = "system:registration"

// RegistrationConsumer grants the default role when a new identity is
// registered. Processing is idempotent on eventId: the repository performs the
// ledger reserve and the grant in one atomic step, so redelivery of an already
// processed event is a no-op and a failed grant leaves no ledger record behind.
type RegistrationConsumer struct {
	Roles  ports.RoleRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// Handler adapts the consumer to the bus contract.
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
			"event", "authz_registration_event_rejected",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	assignment := entities.RoleAssignment{
		UserID:    event.UserID,
		RoleID:    entities.DefaultRole,
		GrantedBy: grantedBySystem,
		GrantedAt: c.now(),
	}
	applied, err := c.Roles.ApplyRegistrationGrant(ctx, event.EventID, assignment)
	if err != nil {
		logger.Error("default role grant failed",
			"event", "authz_default_role_grant_failed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"event_id", event.EventID,
			"user_id", event.UserID,
			"error", err.Error(),
		)
		return err
	}
	if !applied {
		logger.Info("duplicate registration event skipped",
			"event", "authz_registration_event_duplicate",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"event_id", event.EventID,
			"user_id", event.UserID,
		)
		return nil
	}

	logger.Info("default role granted",
		"event", "authz_default_role_granted",
		"module", "identity-access/authorization-service",
		"layer", "worker",
		"event_id", event.EventID,
		"user_id", event.UserID,
		"role_id", entities.DefaultRole,
	)
	return nil
}

func (c RegistrationConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
