package events

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Canonical identity-lifecycle event contract shared by every context.
// There is exactly one event type per logical occurrence; consumers that need
// schema evolution adapt at their decode boundary instead of subclassing.

const (
	// TopicUserRegistered is the default topic; override via EVENTS_TOPIC.
	TopicUserRegistered = "identity.user.registered"

	SourceRegistration = "registration"
)

// UserRegistered is the wire payload published when a new identity is created.
// EventID is the sole idempotency anchor: the transport is at-least-once and
// redelivery of the same EventID must be a no-op downstream.
type UserRegistered struct {
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Source    string    `json:"source"`
	EventID   string    `json:"eventId"`
}

var (
	ErrMissingEventID = errors.New("lifecycle event missing eventId")
	ErrMissingUserID  = errors.New("lifecycle event missing userId")
)

// PartitionKey routes all events for one subject to the same partition so a
// single consumer observes them in publish order.
func (e UserRegistered) PartitionKey() string {
	return strconv.FormatInt(e.UserID, 10)
}

func (e UserRegistered) Validate() error {
	if e.EventID == "" {
		return ErrMissingEventID
	}
	if e.UserID == 0 {
		return ErrMissingUserID
	}
	return nil
}

// DecodeUserRegistered is the consumer-boundary adapter for the wire schema.
// Unknown fields are ignored so additive schema revisions stay compatible.
func DecodeUserRegistered(raw []byte) (UserRegistered, error) {
	var event UserRegistered
	if err := json.Unmarshal(raw, &event); err != nil {
		return UserRegistered{}, err
	}
	if err := event.Validate(); err != nil {
		return UserRegistered{}, err
	}
	return event, nil
}
