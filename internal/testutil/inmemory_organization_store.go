package testutil

import (
	"context"
	"sync"

	"github.com/meterline/meterline/internal/domain/organization"
	ierr "github.com/meterline/meterline/internal/errors"
)

// InMemoryOrganizationStore is an in-memory implementation of
// organization.Repository
type InMemoryOrganizationStore struct {
	mu            sync.RWMutex
	organizations map[string]*organization.Organization
}

func NewInMemoryOrganizationStore() *InMemoryOrganizationStore {
	return &InMemoryOrganizationStore{
		organizations: make(map[string]*organization.Organization),
	}
}

func (s *InMemoryOrganizationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations = make(map[string]*organization.Organization)
}

func (s *InMemoryOrganizationStore) Create(ctx context.Context, o *organization.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations[o.ID] = o
	return nil
}

func (s *InMemoryOrganizationStore) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.organizations[id]
	if !ok {
		return nil, ierr.NewError("organization not found").
			WithHintf("Organization with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return o, nil
}

func (s *InMemoryOrganizationStore) Update(ctx context.Context, o *organization.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.organizations[o.ID]; !ok {
		return ierr.NewError("organization not found").
			WithHintf("Organization with ID %s was not found", o.ID).
			Mark(ierr.ErrNotFound)
	}
	s.organizations[o.ID] = o
	return nil
}
