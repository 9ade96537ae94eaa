package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// InMemoryLedgerStore is an in-memory implementation of ledger.Repository
type InMemoryLedgerStore struct {
	mu           sync.RWMutex
	accounts     map[string]*ledger.Account
	transactions map[string]*ledger.Transaction
	entries      map[string]*ledger.Entry
}

func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		accounts:     make(map[string]*ledger.Account),
		transactions: make(map[string]*ledger.Transaction),
		entries:      make(map[string]*ledger.Entry),
	}
}

func (s *InMemoryLedgerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[string]*ledger.Account)
	s.transactions = make(map[string]*ledger.Transaction)
	s.entries = make(map[string]*ledger.Entry)
}

func (s *InMemoryLedgerStore) CreateAccount(ctx context.Context, account *ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.SubscriptionID == account.SubscriptionID && existing.UsageMeterID == account.UsageMeterID {
			return ierr.NewError("ledger account already exists").
				WithHint("A ledger account already exists for this subscription and meter").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *InMemoryLedgerStore) GetAccountByID(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, ierr.NewError("ledger account not found").
			WithHintf("Ledger account with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return account, nil
}

func (s *InMemoryLedgerStore) GetAccountBySubscriptionAndMeter(ctx context.Context, subscriptionID, usageMeterID string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.SubscriptionID == subscriptionID && account.UsageMeterID == usageMeterID {
			return account, nil
		}
	}
	return nil, ierr.NewError("ledger account not found").
		WithHint("No ledger account exists for this subscription and meter").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryLedgerStore) ListAccountsBySubscription(ctx context.Context, subscriptionID string) ([]*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []*ledger.Account
	for _, account := range s.accounts {
		if account.SubscriptionID == subscriptionID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (s *InMemoryLedgerStore) CreateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.IdempotencyKey == tx.IdempotencyKey {
			return ierr.NewError("ledger transaction already exists").
				WithHint("A ledger transaction with this idempotency key already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.transactions[tx.ID] = tx
	return nil
}

func (s *InMemoryLedgerStore) GetTransactionByID(ctx context.Context, id string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, ierr.NewError("ledger transaction not found").
			WithHintf("Ledger transaction with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return tx, nil
}

func (s *InMemoryLedgerStore) GetTransactionByIdempotencyKey(ctx context.Context, key string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions {
		if tx.IdempotencyKey == key {
			return tx, nil
		}
	}
	return nil, ierr.NewError("ledger transaction not found").
		WithHint("No ledger transaction exists for this idempotency key").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryLedgerStore) CreateEntries(ctx context.Context, entries []*ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		if _, ok := s.accounts[entry.AccountID]; !ok {
			return ierr.NewError("ledger account not found").
				WithHint("The ledger account referenced by the entry does not exist").
				Mark(ierr.ErrNotFound)
		}
		if _, ok := s.transactions[entry.TransactionID]; !ok {
			return ierr.NewError("ledger transaction not found").
				WithHint("The ledger transaction referenced by the entry does not exist").
				Mark(ierr.ErrNotFound)
		}
	}
	for _, entry := range entries {
		s.entries[entry.ID] = entry
	}
	return nil
}

func (s *InMemoryLedgerStore) GetEntryByID(ctx context.Context, id string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ierr.NewError("ledger entry not found").
			WithHintf("Ledger entry with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return entry, nil
}

func (s *InMemoryLedgerStore) ListEntriesByAccount(ctx context.Context, accountID string) ([]*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*ledger.Entry
	for _, entry := range s.entries {
		if entry.AccountID == accountID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (s *InMemoryLedgerStore) ListEntriesByTransaction(ctx context.Context, transactionID string) ([]*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*ledger.Entry
	for _, entry := range s.entries {
		if entry.TransactionID == transactionID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (s *InMemoryLedgerStore) PostEntries(ctx context.Context, entryIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range entryIDs {
		entry, ok := s.entries[id]
		if !ok || entry.EntryStatus != types.LedgerEntryStatusPending || entry.DiscardedAt != nil {
			return ierr.NewError("not all entries could be posted").
				WithHint("Only pending entries that have not been discarded can post").
				Mark(ierr.ErrInvalidOperation)
		}
	}
	for _, id := range entryIDs {
		s.entries[id].EntryStatus = types.LedgerEntryStatusPosted
	}
	return nil
}

func (s *InMemoryLedgerStore) DiscardEntries(ctx context.Context, entryIDs []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range entryIDs {
		entry, ok := s.entries[id]
		if !ok || entry.EntryStatus != types.LedgerEntryStatusPending || entry.DiscardedAt != nil {
			return ierr.NewError("not all entries could be discarded").
				WithHint("Only pending entries can be discarded").
				Mark(ierr.ErrInvalidOperation)
		}
	}
	for _, id := range entryIDs {
		discardedAt := at
		s.entries[id].DiscardedAt = &discardedAt
	}
	return nil
}

func (s *InMemoryLedgerStore) SumEntries(ctx context.Context, accountID string, mode types.BalanceMode) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := decimal.Zero
	for _, entry := range s.entries {
		if entry.AccountID != accountID {
			continue
		}
		switch mode {
		case types.BalanceModePosted:
			if entry.EntryStatus != types.LedgerEntryStatusPosted {
				continue
			}
		case types.BalanceModeAvailable:
			if entry.EntryStatus == types.LedgerEntryStatusPending && entry.DiscardedAt != nil {
				continue
			}
		}
		if entry.EntryType.IsCredit() {
			balance = balance.Add(entry.Amount)
		} else {
			balance = balance.Sub(entry.Amount)
		}
	}
	return balance, nil
}

func (s *InMemoryLedgerStore) SumAppliedByCredit(ctx context.Context, accountID string) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	applied := make(map[string]decimal.Decimal)
	for _, entry := range s.entries {
		if entry.AccountID != accountID || entry.UsageCreditID == nil || entry.DiscardedAt != nil {
			continue
		}
		if entry.EntryType != types.LedgerEntryTypeCreditBalanceConsumed &&
			entry.EntryType != types.LedgerEntryTypeCreditGrantExpired {
			continue
		}
		applied[*entry.UsageCreditID] = applied[*entry.UsageCreditID].Add(entry.Amount)
	}
	return applied, nil
}
