package workers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	ordermemory "gatekeeper/contexts/commerce/order-service/adapters/memory"
	"gatekeeper/contexts/commerce/order-service/domain/entities"
	authzmemory "gatekeeper/contexts/identity-access/authorization-service/adapters/memory"
	authzworkers "gatekeeper/contexts/identity-access/authorization-service/application/workers"
	"gatekeeper/internal/platform/messaging"
	"gatekeeper/internal/shared/events"
)

func registrationPayload(t *testing.T, userID int64, username string, eventID string) []byte {
	t.Helper()
	payload, err := json.Marshal(events.UserRegistered{
		UserID:    userID,
		Username:  username,
		Email:     username + "@x.com",
		CreatedAt: time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC),
		Source:    events.SourceRegistration,
		EventID:   eventID,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDuplicateEventInitializesAccountExactlyOnce(t *testing.T) {
	store := ordermemory.NewStore()
	worker := RegistrationConsumer{Accounts: store}
	payload := registrationPayload(t, 7, "li", "abc-1")

	for delivery := 0; delivery < 3; delivery++ {
		if err := worker.Handle(context.Background(), payload); err != nil {
			t.Fatalf("delivery %d: %v", delivery, err)
		}
	}

	accounts, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected exactly one account, got %d", len(accounts))
	}
	if accounts[0].Username != "li" || accounts[0].Status != entities.AccountStatusActive {
		t.Fatalf("unexpected account %+v", accounts[0])
	}
	if store.ProcessedCount() != 1 {
		t.Fatalf("expected one ledger entry, got %d", store.ProcessedCount())
	}
}

// recordingAccounts wraps the memory store and records processing order.
type recordingAccounts struct {
	inner *ordermemory.Store

	mu    sync.Mutex
	order []string
}

func (r *recordingAccounts) ApplyRegistration(ctx context.Context, eventID string, account entities.BuyerAccount) (bool, error) {
	applied, err := r.inner.ApplyRegistration(ctx, eventID, account)
	if err == nil && applied {
		r.mu.Lock()
		r.order = append(r.order, eventID)
		r.mu.Unlock()
	}
	return applied, err
}

func (r *recordingAccounts) GetByID(ctx context.Context, userID int64) (entities.BuyerAccount, error) {
	return r.inner.GetByID(ctx, userID)
}

func (r *recordingAccounts) List(ctx context.Context) ([]entities.BuyerAccount, error) {
	return r.inner.List(ctx)
}

func (r *recordingAccounts) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func TestEventsForOneSubjectAreProcessedInPublishOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := messaging.NewInProcBus(nil)
	accounts := &recordingAccounts{inner: ordermemory.NewStore()}
	worker := RegistrationConsumer{Accounts: accounts}
	if err := bus.Subscribe(ctx, events.TopicUserRegistered, ConsumerGroup, worker.Handler()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	first := registrationPayload(t, 7, "li", "e1")
	second := registrationPayload(t, 7, "li", "e2")
	if err := bus.Publish(ctx, events.TopicUserRegistered, "7", first); err != nil {
		t.Fatalf("publish first: %v", err)
	}
	if err := bus.Publish(ctx, events.TopicUserRegistered, "7", second); err != nil {
		t.Fatalf("publish second: %v", err)
	}

	waitFor(t, func() bool { return len(accounts.snapshot()) == 2 })
	order := accounts.snapshot()
	if order[0] != "e1" || order[1] != "e2" {
		t.Fatalf("events processed out of publish order: %v", order)
	}
}

func TestIndependentConsumerGroupsEachProcessOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := messaging.NewInProcBus(nil)

	orderStore := ordermemory.NewStore()
	orderWorker := RegistrationConsumer{Accounts: orderStore}
	if err := bus.Subscribe(ctx, events.TopicUserRegistered, ConsumerGroup, orderWorker.Handler()); err != nil {
		t.Fatalf("subscribe order group: %v", err)
	}

	authzStore := authzmemory.NewStore()
	authzWorker := authzworkers.RegistrationConsumer{Roles: authzStore}
	if err := bus.Subscribe(ctx, events.TopicUserRegistered, authzworkers.ConsumerGroup, authzWorker.Handler()); err != nil {
		t.Fatalf("subscribe authz group: %v", err)
	}

	payload := registrationPayload(t, 7, "li", "abc-1")
	if err := bus.Publish(ctx, events.TopicUserRegistered, "7", payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, func() bool {
		return orderStore.ProcessedCount() == 1 && authzStore.ProcessedCount() == 1
	})

	if _, err := orderStore.GetByID(ctx, 7); err != nil {
		t.Fatalf("buyer account missing: %v", err)
	}
	roles, err := authzStore.ListByUser(ctx, 7)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected one role grant, got %d", len(roles))
	}

	// Redelivery to one group must not disturb the other.
	if err := bus.Publish(ctx, events.TopicUserRegistered, "7", payload); err != nil {
		t.Fatalf("republish: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if orderStore.ProcessedCount() != 1 || authzStore.ProcessedCount() != 1 {
		t.Fatalf("duplicate delivery must be a no-op, got order=%d authz=%d",
			orderStore.ProcessedCount(), authzStore.ProcessedCount())
	}
}
