package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meterline/meterline/internal/domain/credit"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

// InMemoryCreditStore is an in-memory implementation of credit.Repository
type InMemoryCreditStore struct {
	mu      sync.RWMutex
	credits map[string]*credit.Credit
}

func NewInMemoryCreditStore() *InMemoryCreditStore {
	return &InMemoryCreditStore{
		credits: make(map[string]*credit.Credit),
	}
}

func (s *InMemoryCreditStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = make(map[string]*credit.Credit)
}

func (s *InMemoryCreditStore) Create(ctx context.Context, c *credit.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits[c.ID] = c
	return nil
}

func (s *InMemoryCreditStore) GetByID(ctx context.Context, id string) (*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.credits[id]
	if !ok {
		return nil, ierr.NewError("usage credit not found").
			WithHintf("Usage credit with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryCreditStore) ListByAccount(ctx context.Context, ledgerAccountID string) ([]*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var credits []*credit.Credit
	for _, c := range s.credits {
		if c.LedgerAccountID == ledgerAccountID && c.Status == types.StatusPublished {
			credits = append(credits, c)
		}
	}
	sort.Slice(credits, func(i, j int) bool { return credits[i].ID < credits[j].ID })
	return credits, nil
}

func (s *InMemoryCreditStore) ListExpiring(ctx context.Context, asOf time.Time) ([]*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var credits []*credit.Credit
	for _, c := range s.credits {
		if c.Status == types.StatusPublished && c.ExpiresAt != nil && !c.ExpiresAt.After(asOf) {
			credits = append(credits, c)
		}
	}
	sort.Slice(credits, func(i, j int) bool { return credits[i].ID < credits[j].ID })
	return credits, nil
}

func (s *InMemoryCreditStore) Archive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.credits[id]
	if !ok || c.Status != types.StatusPublished {
		return ierr.NewError("usage credit was not found or already archived").
			WithHintf("Usage credit with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	c.Status = types.StatusArchived
	return nil
}
