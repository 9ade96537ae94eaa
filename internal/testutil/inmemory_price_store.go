package testutil

import (
	"context"
	"sync"

	"github.com/meterline/meterline/internal/domain/price"
	ierr "github.com/meterline/meterline/internal/errors"
)

// InMemoryPriceStore is an in-memory implementation of price.Repository
type InMemoryPriceStore struct {
	mu     sync.RWMutex
	prices map[string]*price.Price
}

func NewInMemoryPriceStore() *InMemoryPriceStore {
	return &InMemoryPriceStore{
		prices: make(map[string]*price.Price),
	}
}

func (s *InMemoryPriceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = make(map[string]*price.Price)
}

func (s *InMemoryPriceStore) Create(ctx context.Context, p *price.Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[p.ID] = p
	return nil
}

func (s *InMemoryPriceStore) GetByID(ctx context.Context, id string) (*price.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[id]
	if !ok {
		return nil, ierr.NewError("price not found").
			WithHintf("Price with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}
