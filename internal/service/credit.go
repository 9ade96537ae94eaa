package service

import (
	"context"
	"fmt"
	"time"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
	"github.com/shopspring/decimal"
)

// CreditService issues usage credit grants and runs expiry.
type CreditService interface {
	// IssueCredit grants credit to a ledger account and books the
	// recognizing credit_grant_recognized entry atomically.
	IssueCredit(ctx context.Context, req dto.IssueCreditRequest) (*dto.CreditResponse, error)

	// GetCredit retrieves a credit grant by ID
	GetCredit(ctx context.Context, id string) (*dto.CreditResponse, error)

	// ExpireCredits books offsetting credit_grant_expired debits for the
	// unconsumed remainder of every grant expired as of the given instant,
	// then archives the grants.
	ExpireCredits(ctx context.Context, asOf time.Time) (*dto.ExpireCreditsResponse, error)

	// RemainingAmount reports the unconsumed balance of a grant: issued
	// amount minus everything already applied or expired against it.
	RemainingAmount(ctx context.Context, creditID string) (decimal.Decimal, error)
}

type creditService struct {
	ServiceParams
}

func NewCreditService(params ServiceParams) CreditService {
	return &creditService{
		ServiceParams: params,
	}
}

func (s *creditService) IssueCredit(ctx context.Context, req dto.IssueCreditRequest) (*dto.CreditResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.LedgerRepo.GetAccountByID(ctx, req.LedgerAccountID)
	if err != nil {
		return nil, err
	}

	grant := req.ToCredit(ctx, account)
	if err := grant.Validate(); err != nil {
		return nil, err
	}

	ledgerTx := &ledger.Transaction{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_TRANSACTION),
		TxType:         types.LedgerTransactionTypeCreditGrantRecognized,
		SubscriptionID: account.SubscriptionID,
		IdempotencyKey: fmt.Sprintf("credit:%s", grant.ID),
		Description:    "credit grant recognized",
		Livemode:       types.GetLivemode(ctx),
		EnvironmentID:  types.GetEnvironmentID(ctx),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	entry := &ledger.Entry{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		TransactionID: ledgerTx.ID,
		AccountID:     account.ID,
		EntryType:     types.LedgerEntryTypeCreditGrantRecognized,
		Amount:        grant.IssuedAmount,
		EntryStatus:   types.LedgerEntryStatusPosted,
		UsageCreditID: &grant.ID,
		UsageMeterID:  account.UsageMeterID,
		Description:   "credit grant recognized",
		EnvironmentID: types.GetEnvironmentID(ctx),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.CreditRepo.Create(ctx, grant); err != nil {
			return err
		}
		if err := s.LedgerRepo.CreateTransaction(ctx, ledgerTx); err != nil {
			return err
		}
		return s.LedgerRepo.CreateEntries(ctx, []*ledger.Entry{entry})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("issued usage credit",
		"usage_credit_id", grant.ID,
		"ledger_account_id", account.ID,
		"amount", grant.IssuedAmount.String(),
		"credit_type", grant.CreditType,
	)

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventLedgerTransactionCreated,
		webhookDto.InternalLedgerTransactionEvent{TransactionID: ledgerTx.ID},
	)

	return &dto.CreditResponse{
		Credit:            grant,
		LedgerTransaction: ledgerTx,
	}, nil
}

func (s *creditService) GetCredit(ctx context.Context, id string) (*dto.CreditResponse, error) {
	grant, err := s.CreditRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CreditResponse{Credit: grant}, nil
}

func (s *creditService) RemainingAmount(ctx context.Context, creditID string) (decimal.Decimal, error) {
	grant, err := s.CreditRepo.GetByID(ctx, creditID)
	if err != nil {
		return decimal.Zero, err
	}

	applied, err := s.LedgerRepo.SumAppliedByCredit(ctx, grant.LedgerAccountID)
	if err != nil {
		return decimal.Zero, err
	}

	return grant.IssuedAmount.Sub(applied[grant.ID]), nil
}

func (s *creditService) ExpireCredits(ctx context.Context, asOf time.Time) (*dto.ExpireCreditsResponse, error) {
	expiring, err := s.CreditRepo.ListExpiring(ctx, asOf)
	if err != nil {
		return nil, err
	}

	resp := &dto.ExpireCreditsResponse{
		ExpiredCreditIDs: make([]string, 0, len(expiring)),
		TotalExpired:     decimal.Zero,
	}

	for _, grant := range expiring {
		remaining, err := s.RemainingAmount(ctx, grant.ID)
		if err != nil {
			return nil, err
		}

		if err := s.expireGrant(ctx, grant.ID, remaining); err != nil {
			return nil, err
		}

		resp.ExpiredCreditIDs = append(resp.ExpiredCreditIDs, grant.ID)
		if remaining.GreaterThan(decimal.Zero) {
			resp.TotalExpired = resp.TotalExpired.Add(remaining)
		}

		publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
			types.WebhookEventCreditGrantExpired,
			webhookDto.InternalCreditEvent{CreditID: grant.ID},
		)
	}

	return resp, nil
}

// expireGrant books the offsetting debit for a grant's unconsumed remainder
// and archives the grant, atomically per grant.
func (s *creditService) expireGrant(ctx context.Context, creditID string, remaining decimal.Decimal) error {
	grant, err := s.CreditRepo.GetByID(ctx, creditID)
	if err != nil {
		return err
	}

	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		if remaining.GreaterThan(decimal.Zero) {
			ledgerTx := &ledger.Transaction{
				ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_TRANSACTION),
				TxType:         types.LedgerTransactionTypeCreditGrantExpired,
				SubscriptionID: grant.SubscriptionID,
				IdempotencyKey: fmt.Sprintf("credit_expiry:%s", grant.ID),
				Description:    "credit grant expired",
				Livemode:       types.GetLivemode(ctx),
				EnvironmentID:  types.GetEnvironmentID(ctx),
				BaseModel:      types.GetDefaultBaseModel(ctx),
			}

			// Re-check the idempotency key inside the transaction so a
			// concurrent expiry run cannot double-book the debit.
			existing, err := s.LedgerRepo.GetTransactionByIdempotencyKey(ctx, ledgerTx.IdempotencyKey)
			if err != nil && !ierr.IsNotFound(err) {
				return err
			}
			if existing != nil {
				return s.CreditRepo.Archive(ctx, grant.ID)
			}

			entry := &ledger.Entry{
				ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
				TransactionID: ledgerTx.ID,
				AccountID:     grant.LedgerAccountID,
				EntryType:     types.LedgerEntryTypeCreditGrantExpired,
				Amount:        remaining,
				EntryStatus:   types.LedgerEntryStatusPosted,
				UsageCreditID: &grant.ID,
				UsageMeterID:  grant.UsageMeterID,
				Description:   "credit grant expired",
				EnvironmentID: types.GetEnvironmentID(ctx),
				BaseModel:     types.GetDefaultBaseModel(ctx),
			}
			if err := entry.Validate(); err != nil {
				return err
			}

			if err := s.LedgerRepo.CreateTransaction(ctx, ledgerTx); err != nil {
				return err
			}
			if err := s.LedgerRepo.CreateEntries(ctx, []*ledger.Entry{entry}); err != nil {
				return err
			}
		}

		return s.CreditRepo.Archive(ctx, grant.ID)
	})
}
