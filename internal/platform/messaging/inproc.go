package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type inprocMessage struct {
	key   []byte
	value []byte
}

// InProcBus is the broker-free bus used by tests and single-process dev runs.
// It honors the same contract as the Kafka adapter: delivery is at-least-once,
// values with the same key reach each group in publish order, and a failing
// handler sees the same message again before any later one.
type InProcBus struct {
	mu     sync.RWMutex
	groups map[string]map[string]chan inprocMessage // topic -> group -> queue
	logger *slog.Logger

	retryDelay time.Duration
}

func NewInProcBus(logger *slog.Logger) *InProcBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcBus{
		groups:     make(map[string]map[string]chan inprocMessage),
		logger:     logger,
		retryDelay: 10 * time.Millisecond,
	}
}

func (b *InProcBus) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.RLock()
	queues := make([]chan inprocMessage, 0, len(b.groups[topic]))
	for _, queue := range b.groups[topic] {
		queues = append(queues, queue)
	}
	b.mu.RUnlock()

	message := inprocMessage{key: []byte(key), value: value}
	for _, queue := range queues {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case queue <- message:
		}
	}
	return nil
}

func (b *InProcBus) Subscribe(ctx context.Context, topic string, group string, handler Handler) error {
	b.mu.Lock()
	if b.groups[topic] == nil {
		b.groups[topic] = make(map[string]chan inprocMessage)
	}
	queue, ok := b.groups[topic][group]
	if !ok {
		queue = make(chan inprocMessage, 256)
		b.groups[topic][group] = queue
	}
	b.mu.Unlock()

	// One goroutine per (topic, group): strictly serial processing keeps the
	// per-key ordering guarantee.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case message := <-queue:
				for {
					err := handler(ctx, message.key, message.value)
					if err == nil {
						break
					}
					if ctx.Err() != nil {
						return
					}
					b.logger.Error("inproc handler failed",
						"event", "inproc_handler_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", group,
						"error", err.Error(),
					)
					time.Sleep(b.retryDelay)
				}
			}
		}
	}()
	return nil
}
