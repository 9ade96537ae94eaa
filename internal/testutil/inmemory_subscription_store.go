package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/meterline/meterline/internal/domain/subscription"
	ierr "github.com/meterline/meterline/internal/errors"
)

// InMemorySubscriptionStore is an in-memory implementation of
// subscription.Repository. The setup intent uniqueness constraint is enforced
// the way the schema does, so reconciliation replay tests behave like
// production.
type InMemorySubscriptionStore struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription.Subscription
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subscriptions: make(map[string]*subscription.Subscription),
	}
}

func (s *InMemorySubscriptionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = make(map[string]*subscription.Subscription)
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSetupIntentUnique(sub); err != nil {
		return err
	}
	s.subscriptions[sub.ID] = sub
	return nil
}

func (s *InMemorySubscriptionStore) GetByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.ID]; !ok {
		return ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	if err := s.checkSetupIntentUnique(sub); err != nil {
		return err
	}
	s.subscriptions[sub.ID] = sub
	return nil
}

func (s *InMemorySubscriptionStore) GetBySetupIntentID(ctx context.Context, setupIntentID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscriptions {
		if sub.SetupIntentID != nil && *sub.SetupIntentID == setupIntentID {
			return sub, nil
		}
	}
	return nil, ierr.NewError("subscription not found").
		WithHint("No subscription exists for this setup intent").
		Mark(ierr.ErrNotFound)
}

func (s *InMemorySubscriptionStore) ListByCustomerID(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var subs []*subscription.Subscription
	for _, sub := range s.subscriptions {
		if sub.CustomerID == customerID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (s *InMemorySubscriptionStore) checkSetupIntentUnique(sub *subscription.Subscription) error {
	if sub.SetupIntentID == nil {
		return nil
	}
	for _, existing := range s.subscriptions {
		if existing.ID == sub.ID {
			continue
		}
		if existing.SetupIntentID != nil && *existing.SetupIntentID == *sub.SetupIntentID {
			return ierr.NewError("subscription already exists for this setup intent").
				WithHint("A subscription already exists for this setup intent").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return nil
}
