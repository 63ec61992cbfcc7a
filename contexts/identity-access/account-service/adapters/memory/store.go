package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatekeeper/contexts/identity-access/account-service/domain/entities"
	domainerrors "gatekeeper/contexts/identity-access/account-service/domain/errors"
	"gatekeeper/internal/shared/outbox"
)

// Store backs dev/test wiring: it implements the profile repository, the
// outbox repository, Clock, and IDGenerator in one place.
type Store struct {
	mu       sync.Mutex
	profiles map[int64]entities.Profile
	outbox   map[string]outbox.Message
	order    []string
}

func NewStore() *Store {
	return &Store{
		profiles: make(map[int64]entities.Profile),
		outbox:   make(map[string]outbox.Message),
	}
}

func (s *Store) Now() time.Time { return time.Now() }

func (s *Store) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) GetByID(_ context.Context, userID int64) (entities.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return entities.Profile{}, domainerrors.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Store) List(_ context.Context) ([]entities.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		items = append(items, profile)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
	return items, nil
}

func (s *Store) CreateWithOutbox(_ context.Context, profile entities.Profile, message outbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.profiles {
		if existing.Email == profile.Email {
			return domainerrors.ErrEmailAlreadyRegistered
		}
	}
	message.Status = outbox.StatusPending
	s.profiles[profile.UserID] = profile
	s.outbox[message.ID] = message
	s.order = append(s.order, message.ID)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]outbox.Message, 0, limit)
	for _, id := range s.order {
		message := s.outbox[id]
		if message.Status != outbox.StatusPending {
			continue
		}
		items = append(items, message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, id string, _ time.Time) error {
	return s.setStatus(id, outbox.StatusSent, nil)
}

func (s *Store) MarkOutboxRetry(_ context.Context, id string, retryCount int) error {
	return s.setStatus(id, outbox.StatusPending, &retryCount)
}

func (s *Store) MarkOutboxDeadLetter(_ context.Context, id string, _ time.Time) error {
	return s.setStatus(id, outbox.StatusDeadLetter, nil)
}

func (s *Store) setStatus(id string, status string, retryCount *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.outbox[id]
	if !ok {
		return domainerrors.ErrInvalidRequest
	}
	message.Status = status
	if retryCount != nil {
		message.RetryCount = *retryCount
	}
	s.outbox[id] = message
	return nil
}

// OutboxSnapshot exposes outbox state for tests.
func (s *Store) OutboxSnapshot() []outbox.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]outbox.Message, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.outbox[id])
	}
	return items
}
