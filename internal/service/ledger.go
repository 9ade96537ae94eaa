package service

import (
	"context"
	"time"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/cache"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
)

// LedgerService owns the append-mostly entry store: account provisioning,
// transaction insertion and balance aggregation.
type LedgerService interface {
	// CreateAccount provisions the accumulation scope for one
	// (subscription, usage meter) pair. Idempotent: an existing account for
	// the pair is returned as-is.
	CreateAccount(ctx context.Context, req dto.CreateLedgerAccountRequest) (*dto.LedgerAccountResponse, error)

	// GetAccount retrieves a ledger account by ID
	GetAccount(ctx context.Context, id string) (*dto.LedgerAccountResponse, error)

	// CreateTransaction inserts a transaction with its entries atomically.
	// When the request carries an idempotency key already committed, the
	// existing transaction is replayed without mutation.
	CreateTransaction(ctx context.Context, req dto.CreateLedgerTransactionRequest) (*dto.LedgerTransactionResponse, error)

	// GetBalance aggregates the account balance in the given mode against a
	// single consistent snapshot. An account with no entries reports zero.
	GetBalance(ctx context.Context, ledgerAccountID string, mode types.BalanceMode) (*dto.BalanceResponse, error)
}

type ledgerService struct {
	ServiceParams
}

func NewLedgerService(params ServiceParams) LedgerService {
	return &ledgerService{
		ServiceParams: params,
	}
}

func (s *ledgerService) CreateAccount(ctx context.Context, req dto.CreateLedgerAccountRequest) (*dto.LedgerAccountResponse, error) {
	account := req.ToAccount(ctx)
	if err := account.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.LedgerRepo.GetAccountBySubscriptionAndMeter(ctx, req.SubscriptionID, req.UsageMeterID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return &dto.LedgerAccountResponse{Account: existing}, nil
	}

	if err := s.LedgerRepo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	return &dto.LedgerAccountResponse{Account: account}, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, id string) (*dto.LedgerAccountResponse, error) {
	account, err := s.getAccountCached(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.LedgerAccountResponse{Account: account}, nil
}

// getAccountCached reads through the in-process cache. Accounts are immutable
// after creation, so cached copies never go stale.
func (s *ledgerService) getAccountCached(ctx context.Context, id string) (*ledger.Account, error) {
	key := cache.GenerateKey(cache.PrefixLedgerAccount, types.GetTenantID(ctx), id)
	if cached, found := s.Cache.Get(ctx, key); found {
		if account, ok := cached.(*ledger.Account); ok {
			return account, nil
		}
	}

	account, err := s.LedgerRepo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, account, cache.DefaultExpiration)
	return account, nil
}

func (s *ledgerService) CreateTransaction(ctx context.Context, req dto.CreateLedgerTransactionRequest) (*dto.LedgerTransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Replay: a committed transaction under the same idempotency key wins.
	if req.IdempotencyKey != "" {
		existing, err := s.LedgerRepo.GetTransactionByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			entries, err := s.LedgerRepo.ListEntriesByTransaction(ctx, existing.ID)
			if err != nil {
				return nil, err
			}
			return &dto.LedgerTransactionResponse{
				Transaction: existing,
				Entries:     entries,
				Replayed:    true,
			}, nil
		}
	}

	tx := req.ToTransaction(ctx)
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	entries := make([]*ledger.Entry, 0, len(req.Entries))
	for i := range req.Entries {
		entry := req.Entries[i].ToEntry(ctx, tx.ID)
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.LedgerRepo.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return s.LedgerRepo.CreateEntries(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventLedgerTransactionCreated,
		webhookDto.InternalLedgerTransactionEvent{TransactionID: tx.ID},
	)

	return &dto.LedgerTransactionResponse{
		Transaction: tx,
		Entries:     entries,
	}, nil
}

func (s *ledgerService) GetBalance(ctx context.Context, ledgerAccountID string, mode types.BalanceMode) (*dto.BalanceResponse, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	// Surface ErrNotFound for a dangling account id before aggregating.
	if _, err := s.getAccountCached(ctx, ledgerAccountID); err != nil {
		return nil, err
	}

	balance, err := s.LedgerRepo.SumEntries(ctx, ledgerAccountID, mode)
	if err != nil {
		return nil, err
	}

	return &dto.BalanceResponse{
		LedgerAccountID: ledgerAccountID,
		Mode:            mode,
		Balance:         balance,
		AsOf:            time.Now().UTC(),
	}, nil
}
