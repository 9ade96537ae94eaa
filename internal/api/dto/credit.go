package dto

import (
	"context"
	"time"

	"github.com/meterline/meterline/internal/domain/credit"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// IssueCreditRequest grants consumable credit to a ledger account.
type IssueCreditRequest struct {
	LedgerAccountID string           `json:"ledger_account_id" binding:"required"`
	CreditType      types.CreditType `json:"credit_type" binding:"required"`
	Amount          decimal.Decimal  `json:"amount" binding:"required"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty"`
	Priority        *int             `json:"priority,omitempty"`
	Metadata        types.Metadata   `json:"metadata,omitempty"`
}

func (r *IssueCreditRequest) Validate() error {
	if err := r.CreditType.Validate(); err != nil {
		return err
	}
	if !r.Amount.GreaterThan(decimal.Zero) {
		return ierr.NewError("amount must be greater than 0").
			WithHint("Credit grants must carry a positive amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *IssueCreditRequest) ToCredit(ctx context.Context, account *ledger.Account) *credit.Credit {
	return &credit.Credit{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_CREDIT),
		LedgerAccountID: account.ID,
		SubscriptionID:  account.SubscriptionID,
		UsageMeterID:    account.UsageMeterID,
		CreditType:      r.CreditType,
		IssuedAmount:    r.Amount,
		ExpiresAt:       r.ExpiresAt,
		Priority:        r.Priority,
		Livemode:        types.GetLivemode(ctx),
		Metadata:        r.Metadata,
		EnvironmentID:   types.GetEnvironmentID(ctx),
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

// CreditResponse carries an issued grant with the ledger transaction that
// recognized it.
type CreditResponse struct {
	Credit            *credit.Credit      `json:"usage_credit"`
	LedgerTransaction *ledger.Transaction `json:"ledger_transaction,omitempty"`
}

// ExpireCreditsResponse summarizes one expiry run.
type ExpireCreditsResponse struct {
	ExpiredCreditIDs []string        `json:"expired_credit_ids"`
	TotalExpired     decimal.Decimal `json:"total_expired"`
}
