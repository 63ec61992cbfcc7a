package events

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeUserRegisteredRoundTrip(t *testing.T) {
	raw := []byte(`{"userId":7,"username":"li","email":"li@x.com","createdAt":"2026-03-01T08:00:00Z","source":"registration","eventId":"abc-1"}`)

	event, err := DecodeUserRegistered(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.UserID != 7 || event.Username != "li" || event.Email != "li@x.com" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Source != SourceRegistration || event.EventID != "abc-1" {
		t.Fatalf("unexpected event %+v", event)
	}
	if !event.CreatedAt.Equal(time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected createdAt %v", event.CreatedAt)
	}
	if event.PartitionKey() != "7" {
		t.Fatalf("expected partition key 7, got %q", event.PartitionKey())
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	raw := []byte(`{"userId":7,"eventId":"abc-1","someFutureField":"x"}`)
	if _, err := DecodeUserRegistered(raw); err != nil {
		t.Fatalf("additive fields must not break decoding: %v", err)
	}
}

func TestDecodeRejectsMissingIdentity(t *testing.T) {
	if _, err := DecodeUserRegistered([]byte(`{"userId":7}`)); !errors.Is(err, ErrMissingEventID) {
		t.Fatalf("expected ErrMissingEventID, got %v", err)
	}
	if _, err := DecodeUserRegistered([]byte(`{"eventId":"abc-1"}`)); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
	if _, err := DecodeUserRegistered([]byte(`not json`)); err == nil {
		t.Fatal("expected a decode error for malformed payload")
	}
}
