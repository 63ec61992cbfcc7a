package messaging

import "context"

// Platform-level bus ports. The transport is at-least-once: a handler error
// means the message was not acknowledged and will be redelivered, so handlers
// must be idempotent on the event identifier carried in the value.

// Handler processes one consumed message. Returning an error withholds the
// acknowledgment and triggers redelivery.
type Handler func(ctx context.Context, key []byte, value []byte) error

// Publisher publishes a value to a topic. All values with the same key land on
// the same partition and are observed in publish order by a single consumer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, value []byte) error
}

// Subscriber attaches a consumer-group handler to a topic. Groups are fully
// independent: one group's progress or failure is invisible to another's.
// Within a group, at most one message per partition is in flight at a time.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, group string, handler Handler) error
}
