package workers

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/contexts/identity-access/account-service/application"
	"gatekeeper/contexts/identity-access/account-service/ports"
	"gatekeeper/internal/shared/events"
)

// OutboxRelay drains pending lifecycle-event rows and publishes them to the
// bus, partition key = subject id. Publish failures are counted per row; a
// row that exhausts MaxRetries is marked dead_letter, which is the
// operator-visible terminal state for a definitive publish failure. The relay
// never runs on a request path, so a slow or down broker cannot block
// admission of new requests.
type OutboxRelay struct {
	Outbox     ports.OutboxRepository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	Topic      string
	BatchSize  int
	MaxRetries int
	Logger     *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = events.TopicUserRegistered
	}
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "account_outbox_list_failed",
			"module", "identity-access/account-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	sent := 0
	for _, message := range pending {
		if err := r.Publisher.Publish(ctx, topic, message.PartitionKey, message.Payload); err != nil {
			retryCount := message.RetryCount + 1
			if retryCount >= maxRetries {
				if dlErr := r.Outbox.MarkOutboxDeadLetter(ctx, message.ID, r.now()); dlErr != nil {
					return dlErr
				}
				logger.Error("outbox event moved to dead letter",
					"event", "account_outbox_dead_lettered",
					"module", "identity-access/account-service",
					"layer", "worker",
					"outbox_id", message.ID,
					"retry_count", retryCount,
					"error", err.Error(),
				)
				continue
			}
			if retryErr := r.Outbox.MarkOutboxRetry(ctx, message.ID, retryCount); retryErr != nil {
				return retryErr
			}
			logger.Warn("outbox publish failed, will retry",
				"event", "account_outbox_publish_retry",
				"module", "identity-access/account-service",
				"layer", "worker",
				"outbox_id", message.ID,
				"retry_count", retryCount,
				"error", err.Error(),
			)
			continue
		}

		if err := r.Outbox.MarkOutboxSent(ctx, message.ID, r.now()); err != nil {
			return err
		}
		sent++
	}

	if sent > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "account_outbox_relay_completed",
			"module", "identity-access/account-service",
			"layer", "worker",
			"sent_count", sent,
		)
	}
	return nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
