package workers

import (
	"context"
	"errors"
	"testing"

	"gatekeeper/contexts/identity-access/account-service/adapters/memory"
	"gatekeeper/contexts/identity-access/account-service/domain/entities"
	"gatekeeper/internal/shared/outbox"
)

type recordingPublisher struct {
	failures  int
	published []publishedMessage
}

type publishedMessage struct {
	Topic string
	Key   string
	Value []byte
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, value []byte) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, publishedMessage{Topic: topic, Key: key, Value: value})
	return nil
}

func seedOutboxRow(t *testing.T, store *memory.Store, id string) {
	t.Helper()
	err := store.CreateWithOutbox(context.Background(), entities.Profile{
		UserID:   7,
		Username: "li",
		Email:    "li@x.com",
	}, outbox.Message{
		ID:           id,
		EventType:    "user.registered",
		PartitionKey: "7",
		Payload:      []byte(`{"userId":7}`),
	})
	if err != nil {
		t.Fatalf("seed outbox row: %v", err)
	}
}

func TestOutboxRelayMarksSentOnSuccess(t *testing.T) {
	store := memory.NewStore()
	seedOutboxRow(t, store, "row-1")
	publisher := &recordingPublisher{}

	relay := OutboxRelay{Outbox: store, Publisher: publisher, Topic: "identity.user.registered"}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(publisher.published))
	}
	if publisher.published[0].Key != "7" {
		t.Fatalf("expected partition key 7, got %q", publisher.published[0].Key)
	}

	snapshot := store.OutboxSnapshot()
	if snapshot[0].Status != outbox.StatusSent {
		t.Fatalf("expected status sent, got %q", snapshot[0].Status)
	}
}

func TestOutboxRelayIncrementsRetryOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	seedOutboxRow(t, store, "row-1")
	publisher := &recordingPublisher{failures: 1}

	relay := OutboxRelay{Outbox: store, Publisher: publisher, MaxRetries: 3}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	snapshot := store.OutboxSnapshot()
	if snapshot[0].Status != outbox.StatusPending {
		t.Fatalf("row must stay pending after a retryable failure, got %q", snapshot[0].Status)
	}
	if snapshot[0].RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", snapshot[0].RetryCount)
	}
}

func TestOutboxRelayDeadLettersAfterMaxRetries(t *testing.T) {
	store := memory.NewStore()
	seedOutboxRow(t, store, "row-1")
	publisher := &recordingPublisher{failures: 10}

	relay := OutboxRelay{Outbox: store, Publisher: publisher, MaxRetries: 3}
	for cycle := 0; cycle < 3; cycle++ {
		if err := relay.RunOnce(context.Background()); err != nil {
			t.Fatalf("run cycle %d: %v", cycle, err)
		}
	}

	snapshot := store.OutboxSnapshot()
	if snapshot[0].Status != outbox.StatusDeadLetter {
		t.Fatalf("expected dead_letter after exhausting retries, got %q", snapshot[0].Status)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("nothing should have been published, got %d", len(publisher.published))
	}

	// A dead-lettered row is terminal: a later cycle must not pick it up.
	publisher.failures = 0
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run after dead letter: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatal("dead-lettered row must not be republished")
	}
}

func TestOutboxRelayPreservesRowOrder(t *testing.T) {
	store := memory.NewStore()
	err := store.CreateWithOutbox(context.Background(), entities.Profile{UserID: 7, Username: "li", Email: "li@x.com"}, outbox.Message{
		ID: "row-1", EventType: "user.registered", PartitionKey: "7", Payload: []byte(`{"eventId":"e1"}`),
	})
	if err != nil {
		t.Fatalf("seed first row: %v", err)
	}
	err = store.CreateWithOutbox(context.Background(), entities.Profile{UserID: 8, Username: "wu", Email: "wu@x.com"}, outbox.Message{
		ID: "row-2", EventType: "user.registered", PartitionKey: "7", Payload: []byte(`{"eventId":"e2"}`),
	})
	if err != nil {
		t.Fatalf("seed second row: %v", err)
	}

	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected two publishes, got %d", len(publisher.published))
	}
	if string(publisher.published[0].Value) != `{"eventId":"e1"}` || string(publisher.published[1].Value) != `{"eventId":"e2"}` {
		t.Fatalf("rows published out of order: %q then %q",
			publisher.published[0].Value, publisher.published[1].Value)
	}
}
