package consumer

import (
	"context"
	"sync"
	"time"
)

// DeadLetter is the terminal record for an event that repeatedly failed
// processing in one consumer group. Rows are operator-facing; replay is a
// manual operation.
type DeadLetter struct {
	Topic         string
	ConsumerGroup string
	PartitionKey  string
	Payload       []byte
	Reason        string
	Attempts      int
	FailedAt      time.Time
}

type DeadLetterStore interface {
	Record(ctx context.Context, letter DeadLetter) error
	List(ctx context.Context, consumerGroup string) ([]DeadLetter, error)
}

// MemoryDeadLetterStore backs dev/test wiring.
type MemoryDeadLetterStore struct {
	mu      sync.Mutex
	letters []DeadLetter
}

func NewMemoryDeadLetterStore() *MemoryDeadLetterStore {
	return &MemoryDeadLetterStore{}
}

func (s *MemoryDeadLetterStore) Record(_ context.Context, letter DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.letters = append(s.letters, letter)
	return nil
}

func (s *MemoryDeadLetterStore) List(_ context.Context, consumerGroup string) ([]DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]DeadLetter, 0, len(s.letters))
	for _, letter := range s.letters {
		if consumerGroup == "" || letter.ConsumerGroup == consumerGroup {
			items = append(items, letter)
		}
	}
	return items, nil
}
