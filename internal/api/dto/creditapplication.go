package dto

import (
	ierr "github.com/meterline/meterline/internal/errors"
)

// BillingRecalculationRequest drives one credit application run against a
// ledger account. Re-running with the same idempotency key supersedes the
// previous run's pending applications instead of stacking new ones.
type BillingRecalculationRequest struct {
	LedgerAccountID string `json:"ledger_account_id" validate:"required"`
	IdempotencyKey  string `json:"idempotency_key" validate:"required"`
}

func (r *BillingRecalculationRequest) Validate() error {
	if r.LedgerAccountID == "" {
		return ierr.NewError("ledger_account_id is required").
			WithHint("Billing recalculation must target a ledger account").
			Mark(ierr.ErrValidation)
	}
	if r.IdempotencyKey == "" {
		return ierr.NewError("idempotency_key is required").
			WithHint("Billing recalculation requires an idempotency key").
			Mark(ierr.ErrValidation)
	}
	return nil
}
