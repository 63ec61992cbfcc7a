package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gatekeeper/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "gatekeeper/contexts/identity-access/authorization-service/domain/errors"
)

type assignmentKey struct {
	UserID int64
	RoleID string
}

// Store backs dev/test wiring: role assignments plus the processed-event
// ledger, guarded by one mutex so the reserve-and-grant step stays atomic.
type Store struct {
	mu          sync.Mutex
	assignments map[assignmentKey]entities.RoleAssignment
	processed   map[string]time.Time
}

func NewStore() *Store {
	return &Store{
		assignments: make(map[assignmentKey]entities.RoleAssignment),
		processed:   make(map[string]time.Time),
	}
}

func (s *Store) Now() time.Time { return time.Now() }

func (s *Store) ApplyRegistrationGrant(_ context.Context, eventID string, assignment entities.RoleAssignment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.processed[eventID]; seen {
		return false, nil
	}
	s.processed[eventID] = assignment.GrantedAt

	key := assignmentKey{UserID: assignment.UserID, RoleID: assignment.RoleID}
	if _, exists := s.assignments[key]; !exists {
		s.assignments[key] = assignment
	}
	return true, nil
}

func (s *Store) Grant(_ context.Context, assignment entities.RoleAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{UserID: assignment.UserID, RoleID: assignment.RoleID}
	if _, exists := s.assignments[key]; exists {
		return domainerrors.ErrRoleAlreadyGranted
	}
	s.assignments[key] = assignment
	return nil
}

func (s *Store) Revoke(_ context.Context, userID int64, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{UserID: userID, RoleID: roleID}
	if _, exists := s.assignments[key]; !exists {
		return domainerrors.ErrAssignmentNotFound
	}
	delete(s.assignments, key)
	return nil
}

func (s *Store) ListByUser(_ context.Context, userID int64) ([]entities.RoleAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.RoleAssignment, 0)
	for key, assignment := range s.assignments {
		if key.UserID == userID {
			items = append(items, assignment)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].RoleID < items[j].RoleID })
	return items, nil
}

// ProcessedCount exposes ledger size for tests.
func (s *Store) ProcessedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}
