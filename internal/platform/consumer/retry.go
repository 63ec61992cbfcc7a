package consumer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"gatekeeper/internal/platform/messaging"
)

// BoundedRetry wraps a consumer handler with an attempt budget. The bus
// redelivers a failing message indefinitely; this wrapper counts the failures
// and, once the budget is spent, records the event in the dead-letter store
// and acknowledges it so the partition can make progress. Dead-lettering is
// fatal for that event, not for the service.
//
// Attempt counts are process-local: a restart resets them and the event gets a
// fresh budget. The dead-letter record is the durable operator signal.
type BoundedRetry struct {
	Topic       string
	Group       string
	MaxAttempts int
	DeadLetters DeadLetterStore
	Clock       func() time.Time
	Logger      *slog.Logger

	mu       sync.Mutex
	attempts map[string]int
}

func (r *BoundedRetry) Wrap(next messaging.Handler) messaging.Handler {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	return func(ctx context.Context, key []byte, value []byte) error {
		fingerprint := hashValue(value)

		err := next(ctx, key, value)
		if err == nil {
			r.forget(fingerprint)
			return nil
		}

		attempt := r.bump(fingerprint)
		if attempt < maxAttempts {
			return err
		}
		r.forget(fingerprint)

		now := time.Now().UTC()
		if r.Clock != nil {
			now = r.Clock().UTC()
		}
		letter := DeadLetter{
			Topic:         r.Topic,
			ConsumerGroup: r.Group,
			PartitionKey:  string(key),
			Payload:       value,
			Reason:        err.Error(),
			Attempts:      attempt,
			FailedAt:      now,
		}
		if storeErr := r.DeadLetters.Record(ctx, letter); storeErr != nil {
			// Keep the message unacknowledged until the dead letter is durable.
			logger.Error("dead letter record failed",
				"event", "consumer_dead_letter_record_failed",
				"module", "internal/platform/consumer",
				"layer", "platform",
				"topic", r.Topic,
				"consumer_group", r.Group,
				"error", storeErr.Error(),
			)
			return storeErr
		}

		logger.Error("event moved to dead letter",
			"event", "consumer_event_dead_lettered",
			"module", "internal/platform/consumer",
			"layer", "platform",
			"topic", r.Topic,
			"consumer_group", r.Group,
			"partition_key", string(key),
			"attempts", attempt,
			"error", err.Error(),
		)
		return nil
	}
}

func (r *BoundedRetry) bump(fingerprint string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts == nil {
		r.attempts = make(map[string]int)
	}
	r.attempts[fingerprint]++
	return r.attempts[fingerprint]
}

func (r *BoundedRetry) forget(fingerprint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, fingerprint)
}

func hashValue(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}
