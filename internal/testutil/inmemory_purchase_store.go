package testutil

import (
	"context"
	"sync"

	"github.com/meterline/meterline/internal/domain/purchase"
	ierr "github.com/meterline/meterline/internal/errors"
)

// InMemoryPurchaseStore is an in-memory implementation of purchase.Repository
type InMemoryPurchaseStore struct {
	mu        sync.RWMutex
	purchases map[string]*purchase.Purchase
}

func NewInMemoryPurchaseStore() *InMemoryPurchaseStore {
	return &InMemoryPurchaseStore{
		purchases: make(map[string]*purchase.Purchase),
	}
}

func (s *InMemoryPurchaseStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = make(map[string]*purchase.Purchase)
}

func (s *InMemoryPurchaseStore) Create(ctx context.Context, p *purchase.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases[p.ID] = p
	return nil
}

func (s *InMemoryPurchaseStore) GetByID(ctx context.Context, id string) (*purchase.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.purchases[id]
	if !ok {
		return nil, ierr.NewError("purchase not found").
			WithHintf("Purchase with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPurchaseStore) Update(ctx context.Context, p *purchase.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[p.ID]; !ok {
		return ierr.NewError("purchase not found").
			WithHintf("Purchase with ID %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	s.purchases[p.ID] = p
	return nil
}
