package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/meterline/meterline/internal/domain/checkoutsession"
	ierr "github.com/meterline/meterline/internal/errors"
)

// InMemoryCheckoutSessionStore is an in-memory implementation of
// checkoutsession.Repository
type InMemoryCheckoutSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*checkoutsession.CheckoutSession
}

func NewInMemoryCheckoutSessionStore() *InMemoryCheckoutSessionStore {
	return &InMemoryCheckoutSessionStore{
		sessions: make(map[string]*checkoutsession.CheckoutSession),
	}
}

func (s *InMemoryCheckoutSessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*checkoutsession.CheckoutSession)
}

func (s *InMemoryCheckoutSessionStore) Create(ctx context.Context, session *checkoutsession.CheckoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemoryCheckoutSessionStore) GetByID(ctx context.Context, id string) (*checkoutsession.CheckoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ierr.NewError("checkout session not found").
			WithHintf("Checkout session with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return session, nil
}

func (s *InMemoryCheckoutSessionStore) Update(ctx context.Context, session *checkoutsession.CheckoutSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return ierr.NewError("checkout session not found").
			WithHintf("Checkout session with ID %s was not found", session.ID).
			Mark(ierr.ErrNotFound)
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemoryCheckoutSessionStore) ListByCustomerID(ctx context.Context, customerID string) ([]*checkoutsession.CheckoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*checkoutsession.CheckoutSession
	for _, session := range s.sessions {
		if session.CustomerID == customerID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}
