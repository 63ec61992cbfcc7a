package ports

import (
	"context"
	"time"

	"gatekeeper/contexts/commerce/order-service/domain/entities"
	"gatekeeper/internal/platform/messaging"
)

type Clock interface {
	Now() time.Time
}

// AccountRepository is the persistence boundary for buyer accounts and the
// processed-event ledger backing the registration consumer. This context owns
// its own ledger; other consumers of the same topic keep theirs.
type AccountRepository interface {
	// ApplyRegistration records eventID in the ledger and initializes the
	// buyer account in one atomic step. A duplicate eventID returns
	// applied=false with no side effect; a failed initialization leaves no
	// ledger record so redelivery retries the whole step.
	ApplyRegistration(ctx context.Context, eventID string, account entities.BuyerAccount) (applied bool, err error)

	GetByID(ctx context.Context, userID int64) (entities.BuyerAccount, error)
	List(ctx context.Context) ([]entities.BuyerAccount, error)
}

// EventSubscriber reuses the platform bus contract.
type EventSubscriber = messaging.Subscriber
