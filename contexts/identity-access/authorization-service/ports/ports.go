package ports

import (
	"context"
	"time"

	"gatekeeper/contexts/identity-access/authorization-service/domain/entities"
	"gatekeeper/internal/platform/messaging"
)

type Clock interface {
	Now() time.Time
}

// RoleRepository is the explicit persistence boundary for role assignments and
// the processed-event ledger backing the registration consumer.
type RoleRepository interface {
	// ApplyRegistrationGrant records eventID in the processed-event ledger and
	// grants the assignment in one atomic step. A duplicate eventID returns
	// applied=false with no side effect. When the grant itself fails the
	// ledger record must not survive, so redelivery retries the whole step.
	ApplyRegistrationGrant(ctx context.Context, eventID string, assignment entities.RoleAssignment) (applied bool, err error)

	Grant(ctx context.Context, assignment entities.RoleAssignment) error
	Revoke(ctx context.Context, userID int64, roleID string) error
	ListByUser(ctx context.Context, userID int64) ([]entities.RoleAssignment, error)
}

// EventSubscriber reuses the platform bus contract.
type EventSubscriber = messaging.Subscriber
