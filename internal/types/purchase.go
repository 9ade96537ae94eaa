package types

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/samber/lo"
)

// PurchaseStatus is the payment state of a purchase.
type PurchaseStatus string

const (
	PurchaseStatusPending PurchaseStatus = "pending"
	PurchaseStatusPaid    PurchaseStatus = "paid"
	PurchaseStatusFailed  PurchaseStatus = "failed"
)

func (s PurchaseStatus) String() string {
	return string(s)
}

func (s PurchaseStatus) Validate() error {
	allowed := []PurchaseStatus{
		PurchaseStatusPending,
		PurchaseStatusPaid,
		PurchaseStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid purchase status").
			WithHint("Invalid purchase status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"status":  s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PriceType distinguishes flat recurring prices from metered usage prices.
type PriceType string

const (
	PriceTypeFixed PriceType = "fixed"
	PriceTypeUsage PriceType = "usage"
)

func (t PriceType) String() string {
	return string(t)
}

func (t PriceType) Validate() error {
	if t != PriceTypeFixed && t != PriceTypeUsage {
		return ierr.NewError("invalid price type").
			WithHint("Invalid price type").
			WithReportableDetails(map[string]any{
				"type": t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
