package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/meterline/meterline/internal/domain/usage"
	ierr "github.com/meterline/meterline/internal/errors"
)

// InMemoryUsageStore is an in-memory implementation of usage.Repository
type InMemoryUsageStore struct {
	mu     sync.RWMutex
	events map[string]*usage.Event
}

func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{
		events: make(map[string]*usage.Event),
	}
}

func (s *InMemoryUsageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string]*usage.Event)
}

func (s *InMemoryUsageStore) Create(ctx context.Context, e *usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.events {
		if existing.TransactionID == e.TransactionID {
			return ierr.NewError("usage event already exists").
				WithHint("A usage event with this correlation id already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.events[e.ID] = e
	return nil
}

func (s *InMemoryUsageStore) GetByID(ctx context.Context, id string) (*usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, ierr.NewError("usage event not found").
			WithHintf("Usage event with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return e, nil
}

func (s *InMemoryUsageStore) GetByTransactionID(ctx context.Context, transactionID string) (*usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.TransactionID == transactionID {
			return e, nil
		}
	}
	return nil, ierr.NewError("usage event not found").
		WithHint("No usage event exists for this correlation id").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryUsageStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*usage.Event
	for _, e := range s.events {
		if e.SubscriptionID == subscriptionID {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}
