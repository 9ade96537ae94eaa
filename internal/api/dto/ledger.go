package dto

import (
	"context"
	"time"

	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// CreateLedgerAccountRequest provisions the accumulation scope for one
// (subscription, usage meter) pair.
type CreateLedgerAccountRequest struct {
	SubscriptionID string         `json:"subscription_id" binding:"required"`
	UsageMeterID   string         `json:"usage_meter_id" binding:"required"`
	CustomerID     string         `json:"customer_id" binding:"required"`
	Currency       string         `json:"currency" binding:"required"`
	Metadata       types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateLedgerAccountRequest) ToAccount(ctx context.Context) *ledger.Account {
	return &ledger.Account{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ACCOUNT),
		SubscriptionID: r.SubscriptionID,
		UsageMeterID:   r.UsageMeterID,
		CustomerID:     r.CustomerID,
		Currency:       r.Currency,
		Livemode:       types.GetLivemode(ctx),
		EnvironmentID:  types.GetEnvironmentID(ctx),
		Metadata:       r.Metadata,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

// LedgerAccountResponse wraps a ledger account for API responses.
type LedgerAccountResponse struct {
	*ledger.Account
}

// CreateLedgerEntryRequest is one posting within a transaction request.
type CreateLedgerEntryRequest struct {
	AccountID                  string                  `json:"ledger_account_id" binding:"required"`
	EntryType                  types.LedgerEntryType   `json:"entry_type" binding:"required"`
	Amount                     decimal.Decimal         `json:"amount" binding:"required"`
	EntryStatus                types.LedgerEntryStatus `json:"entry_status"`
	UsageEventID               *string                 `json:"usage_event_id,omitempty"`
	UsageCreditID              *string                 `json:"usage_credit_id,omitempty"`
	BillingPeriodCalculationID *string                 `json:"billing_period_calculation_id,omitempty"`
	UsageMeterID               string                  `json:"usage_meter_id"`
	Description                string                  `json:"description,omitempty"`
	Metadata                   types.Metadata          `json:"metadata,omitempty"`
}

func (r *CreateLedgerEntryRequest) ToEntry(ctx context.Context, transactionID string) *ledger.Entry {
	status := r.EntryStatus
	if status == "" {
		status = types.LedgerEntryStatusPosted
	}
	return &ledger.Entry{
		ID:                         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		TransactionID:              transactionID,
		AccountID:                  r.AccountID,
		EntryType:                  r.EntryType,
		Amount:                     r.Amount,
		EntryStatus:                status,
		UsageEventID:               r.UsageEventID,
		UsageCreditID:              r.UsageCreditID,
		BillingPeriodCalculationID: r.BillingPeriodCalculationID,
		UsageMeterID:               r.UsageMeterID,
		Description:                r.Description,
		Metadata:                   r.Metadata,
		EnvironmentID:              types.GetEnvironmentID(ctx),
		BaseModel:                  types.GetDefaultBaseModel(ctx),
	}
}

// CreateLedgerTransactionRequest groups the entries of one business operation.
type CreateLedgerTransactionRequest struct {
	TxType         types.LedgerTransactionType `json:"transaction_type" binding:"required"`
	SubscriptionID string                      `json:"subscription_id" binding:"required"`
	IdempotencyKey string                      `json:"idempotency_key"`
	Description    string                      `json:"description,omitempty"`
	Metadata       types.Metadata              `json:"metadata,omitempty"`
	Entries        []CreateLedgerEntryRequest  `json:"entries"`
}

func (r *CreateLedgerTransactionRequest) Validate() error {
	if err := r.TxType.Validate(); err != nil {
		return err
	}
	if r.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Ledger transaction must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreateLedgerTransactionRequest) ToTransaction(ctx context.Context) *ledger.Transaction {
	return &ledger.Transaction{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_TRANSACTION),
		TxType:         r.TxType,
		SubscriptionID: r.SubscriptionID,
		IdempotencyKey: r.IdempotencyKey,
		Description:    r.Description,
		Livemode:       types.GetLivemode(ctx),
		Metadata:       r.Metadata,
		EnvironmentID:  types.GetEnvironmentID(ctx),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
}

// LedgerTransactionResponse carries a transaction with its entries.
type LedgerTransactionResponse struct {
	Transaction *ledger.Transaction `json:"ledger_transaction"`
	Entries     []*ledger.Entry     `json:"entries"`
	// Replayed marks an idempotent replay of a previously committed
	// transaction.
	Replayed bool `json:"replayed,omitempty"`
}

// BalanceResponse is the result of a balance aggregation read.
type BalanceResponse struct {
	LedgerAccountID string            `json:"ledger_account_id"`
	Mode            types.BalanceMode `json:"mode"`
	Balance         decimal.Decimal   `json:"balance"`
	AsOf            time.Time         `json:"as_of"`
}
