package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gatekeeper/contexts/identity-access/authorization-service/adapters/memory"
	"gatekeeper/contexts/identity-access/authorization-service/domain/entities"
	"gatekeeper/internal/platform/consumer"
	"gatekeeper/internal/shared/events"
)

func registrationPayload(t *testing.T, userID int64, eventID string) []byte {
	t.Helper()
	payload, err := json.Marshal(events.UserRegistered{
		UserID:    userID,
		Username:  "li",
		Email:     "li@x.com",
		CreatedAt: time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC),
		Source:    events.SourceRegistration,
		EventID:   eventID,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func TestDuplicateEventGrantsRoleExactlyOnce(t *testing.T) {
	store := memory.NewStore()
	worker := RegistrationConsumer{Roles: store}
	payload := registrationPayload(t, 7, "abc-1")

	for delivery := 0; delivery < 3; delivery++ {
		if err := worker.Handle(context.Background(), payload); err != nil {
			t.Fatalf("delivery %d: %v", delivery, err)
		}
	}

	roles, err := store.ListByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected exactly one assignment, got %d", len(roles))
	}
	if roles[0].RoleID != entities.DefaultRole {
		t.Fatalf("expected default role %q, got %q", entities.DefaultRole, roles[0].RoleID)
	}
	if store.ProcessedCount() != 1 {
		t.Fatalf("expected one ledger entry, got %d", store.ProcessedCount())
	}
}

func TestDistinctEventsForSameUserAreBothProcessed(t *testing.T) {
	store := memory.NewStore()
	worker := RegistrationConsumer{Roles: store}

	if err := worker.Handle(context.Background(), registrationPayload(t, 7, "abc-1")); err != nil {
		t.Fatalf("first event: %v", err)
	}
	if err := worker.Handle(context.Background(), registrationPayload(t, 7, "abc-2")); err != nil {
		t.Fatalf("second event: %v", err)
	}

	// Distinct eventIds both land in the ledger; the grant stays unique.
	if store.ProcessedCount() != 2 {
		t.Fatalf("expected two ledger entries, got %d", store.ProcessedCount())
	}
	roles, err := store.ListByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected one assignment, got %d", len(roles))
	}
}

type flakyRoles struct {
	inner    *memory.Store
	failures int
}

func (f *flakyRoles) ApplyRegistrationGrant(ctx context.Context, eventID string, assignment entities.RoleAssignment) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, errors.New("role store unavailable")
	}
	return f.inner.ApplyRegistrationGrant(ctx, eventID, assignment)
}

func (f *flakyRoles) Grant(ctx context.Context, assignment entities.RoleAssignment) error {
	return f.inner.Grant(ctx, assignment)
}

func (f *flakyRoles) Revoke(ctx context.Context, userID int64, roleID string) error {
	return f.inner.Revoke(ctx, userID, roleID)
}

func (f *flakyRoles) ListByUser(ctx context.Context, userID int64) ([]entities.RoleAssignment, error) {
	return f.inner.ListByUser(ctx, userID)
}

func TestFailedGrantLeavesNoLedgerRecordAndRetriesSucceed(t *testing.T) {
	store := memory.NewStore()
	roles := &flakyRoles{inner: store, failures: 2}
	worker := RegistrationConsumer{Roles: roles}
	payload := registrationPayload(t, 7, "abc-1")

	for attempt := 0; attempt < 2; attempt++ {
		if err := worker.Handle(context.Background(), payload); err == nil {
			t.Fatalf("attempt %d should have failed", attempt)
		}
		if store.ProcessedCount() != 0 {
			t.Fatal("a failed grant must not leave a ledger record")
		}
	}

	if err := worker.Handle(context.Background(), payload); err != nil {
		t.Fatalf("redelivery after recovery: %v", err)
	}
	userRoles, err := store.ListByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(userRoles) != 1 {
		t.Fatalf("expected the grant to land on redelivery, got %d assignments", len(userRoles))
	}
}

func TestPoisonEventIsDeadLetteredAfterBoundedAttempts(t *testing.T) {
	store := memory.NewStore()
	worker := RegistrationConsumer{Roles: store}
	deadLetters := consumer.NewMemoryDeadLetterStore()
	retry := &consumer.BoundedRetry{
		Topic:       events.TopicUserRegistered,
		Group:       ConsumerGroup,
		MaxAttempts: 3,
		DeadLetters: deadLetters,
	}
	handler := retry.Wrap(worker.Handler())

	poison := []byte(`{"username":"li"}`) // no eventId, no userId
	var lastErr error
	acked := false
	for attempt := 0; attempt < 3; attempt++ {
		lastErr = handler(context.Background(), []byte("7"), poison)
		if lastErr == nil {
			acked = true
			break
		}
	}
	if !acked {
		t.Fatalf("expected the final attempt to acknowledge, got %v", lastErr)
	}

	letters, err := deadLetters.List(context.Background(), ConsumerGroup)
	if err != nil {
		t.Fatalf("list dead letters: %v", err)
	}
	if len(letters) != 1 {
		t.Fatalf("expected one dead letter, got %d", len(letters))
	}
	if letters[0].Attempts != 3 {
		t.Fatalf("expected 3 recorded attempts, got %d", letters[0].Attempts)
	}
}
