package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/meterline/meterline/internal/domain/paymentmethod"
	ierr "github.com/meterline/meterline/internal/errors"
)

// InMemoryPaymentMethodStore is an in-memory implementation of
// paymentmethod.Repository
type InMemoryPaymentMethodStore struct {
	mu      sync.RWMutex
	methods map[string]*paymentmethod.PaymentMethod
}

func NewInMemoryPaymentMethodStore() *InMemoryPaymentMethodStore {
	return &InMemoryPaymentMethodStore{
		methods: make(map[string]*paymentmethod.PaymentMethod),
	}
}

func (s *InMemoryPaymentMethodStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods = make(map[string]*paymentmethod.PaymentMethod)
}

func (s *InMemoryPaymentMethodStore) Create(ctx context.Context, m *paymentmethod.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.methods {
		if existing.ProviderMethodID == m.ProviderMethodID {
			return ierr.NewError("payment method already exists").
				WithHint("A payment method with this provider method ID already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.methods[m.ID] = m
	return nil
}

func (s *InMemoryPaymentMethodStore) GetByID(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.methods[id]
	if !ok {
		return nil, ierr.NewError("payment method not found").
			WithHintf("Payment method with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return m, nil
}

func (s *InMemoryPaymentMethodStore) GetByProviderMethodID(ctx context.Context, providerMethodID string) (*paymentmethod.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.methods {
		if m.ProviderMethodID == providerMethodID {
			return m, nil
		}
	}
	return nil, ierr.NewError("payment method not found").
		WithHint("No payment method exists for this provider method ID").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPaymentMethodStore) ListByCustomerID(ctx context.Context, customerID string) ([]*paymentmethod.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var methods []*paymentmethod.PaymentMethod
	for _, m := range s.methods {
		if m.CustomerID == customerID {
			methods = append(methods, m)
		}
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].ID < methods[j].ID })
	return methods, nil
}
