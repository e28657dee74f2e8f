// Package memstore is the in-process PartyStore used by solo play and
// tests.
package memstore

import (
	"context"
	"sync"

	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

type Store struct {
	mu      sync.RWMutex
	parties map[string]*domain.TableState
}

var _ ports.PartyStore = (*Store)(nil)

func New() *Store {
	return &Store{parties: make(map[string]*domain.TableState)}
}

// Load returns a deep copy so callers can mutate freely before Save.
func (s *Store) Load(_ context.Context, partyID string) (*domain.TableState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.parties[partyID]
	if !ok {
		return nil, ports.ErrPartyNotFound
	}
	return t.Clone(), nil
}

func (s *Store) Save(_ context.Context, t *domain.TableState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[t.PartyID] = t.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, partyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.parties, partyID)
	return nil
}
