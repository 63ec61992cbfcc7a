package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gatekeeper/contexts/commerce/order-service/domain/entities"
	domainerrors "gatekeeper/contexts/commerce/order-service/domain/errors"
)

// Store backs dev/test wiring: buyer accounts plus the processed-event
// ledger, guarded by one mutex so the reserve-and-create step stays atomic.
type Store struct {
	mu        sync.Mutex
	accounts  map[int64]entities.BuyerAccount
	processed map[string]time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:  make(map[int64]entities.BuyerAccount),
		processed: make(map[string]time.Time),
	}
}

func (s *Store) ApplyRegistration(_ context.Context, eventID string, account entities.BuyerAccount) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.processed[eventID]; seen {
		return false, nil
	}
	s.processed[eventID] = account.CreatedAt

	if _, exists := s.accounts[account.UserID]; !exists {
		s.accounts[account.UserID] = account
	}
	return true, nil
}

func (s *Store) GetByID(_ context.Context, userID int64) (entities.BuyerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return entities.BuyerAccount{}, domainerrors.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) List(_ context.Context) ([]entities.BuyerAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.BuyerAccount, 0, len(s.accounts))
	for _, account := range s.accounts {
		items = append(items, account)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
	return items, nil
}

// ProcessedCount exposes ledger size for tests.
func (s *Store) ProcessedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}
