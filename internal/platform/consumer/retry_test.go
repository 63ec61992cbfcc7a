package consumer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failingHandler(failures *int) func(context.Context, []byte, []byte) error {
	return func(context.Context, []byte, []byte) error {
		if *failures > 0 {
			*failures--
			return errors.New("handler failed")
		}
		return nil
	}
}

func TestBoundedRetryPropagatesErrorsUnderBudget(t *testing.T) {
	failures := 2
	retry := &BoundedRetry{
		Topic:       "t",
		Group:       "g",
		MaxAttempts: 5,
		DeadLetters: NewMemoryDeadLetterStore(),
	}
	handler := retry.Wrap(failingHandler(&failures))

	for attempt := 0; attempt < 2; attempt++ {
		if err := handler(context.Background(), []byte("7"), []byte("v")); err == nil {
			t.Fatalf("attempt %d should propagate the handler error", attempt)
		}
	}
	if err := handler(context.Background(), []byte("7"), []byte("v")); err != nil {
		t.Fatalf("recovered handler should succeed: %v", err)
	}
}

func TestBoundedRetryDeadLettersAndAcksAtBudget(t *testing.T) {
	failures := 100
	store := NewMemoryDeadLetterStore()
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	retry := &BoundedRetry{
		Topic:       "t",
		Group:       "g",
		MaxAttempts: 3,
		DeadLetters: store,
		Clock:       func() time.Time { return now },
	}
	handler := retry.Wrap(failingHandler(&failures))

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = handler(context.Background(), []byte("7"), []byte("poison")); err == nil {
			t.Fatalf("attempt %d should still propagate", attempt)
		}
	}
	if err = handler(context.Background(), []byte("7"), []byte("poison")); err != nil {
		t.Fatalf("final attempt must acknowledge after dead-lettering: %v", err)
	}

	letters, listErr := store.List(context.Background(), "g")
	if listErr != nil {
		t.Fatalf("list: %v", listErr)
	}
	if len(letters) != 1 {
		t.Fatalf("expected one dead letter, got %d", len(letters))
	}
	letter := letters[0]
	if letter.Topic != "t" || letter.PartitionKey != "7" || string(letter.Payload) != "poison" {
		t.Fatalf("unexpected dead letter %+v", letter)
	}
	if letter.Attempts != 3 || !letter.FailedAt.Equal(now) {
		t.Fatalf("unexpected dead letter metadata %+v", letter)
	}

	// The budget resets after dead-lettering: a later distinct failure run
	// starts counting from one again.
	if err := handler(context.Background(), []byte("7"), []byte("poison")); err == nil {
		t.Fatal("first attempt of a fresh budget should propagate")
	}
}

func TestBoundedRetryKeepsMessageWhenDeadLetterStoreFails(t *testing.T) {
	failures := 100
	retry := &BoundedRetry{
		Topic:       "t",
		Group:       "g",
		MaxAttempts: 1,
		DeadLetters: failingDeadLetterStore{},
	}
	handler := retry.Wrap(failingHandler(&failures))

	if err := handler(context.Background(), []byte("7"), []byte("v")); err == nil {
		t.Fatal("message must stay unacknowledged until the dead letter is durable")
	}
}

type failingDeadLetterStore struct{}

func (failingDeadLetterStore) Record(context.Context, DeadLetter) error {
	return errors.New("store down")
}

func (failingDeadLetterStore) List(context.Context, string) ([]DeadLetter, error) {
	return nil, nil
}

func TestBoundedRetryTracksDistinctPayloadsIndependently(t *testing.T) {
	store := NewMemoryDeadLetterStore()
	retry := &BoundedRetry{
		Topic:       "t",
		Group:       "g",
		MaxAttempts: 2,
		DeadLetters: store,
	}
	handler := retry.Wrap(func(context.Context, []byte, []byte) error {
		return errors.New("always fails")
	})

	if err := handler(context.Background(), []byte("7"), []byte("a")); err == nil {
		t.Fatal("first failure of a should propagate")
	}
	if err := handler(context.Background(), []byte("8"), []byte("b")); err == nil {
		t.Fatal("first failure of b should propagate")
	}

	if err := handler(context.Background(), []byte("7"), []byte("a")); err != nil {
		t.Fatalf("a should dead-letter on its second attempt: %v", err)
	}
	letters, err := store.List(context.Background(), "g")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(letters) != 1 || string(letters[0].Payload) != "a" {
		t.Fatalf("expected only a dead-lettered, got %+v", letters)
	}
}
