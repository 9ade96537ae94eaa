package dto

import (
	"github.com/meterline/meterline/internal/domain/purchase"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest opens a purchase record prior to checkout. Fee and
// discount bookkeeping happens at creation; the paid flip happens during
// reconciliation.
type CreatePurchaseRequest struct {
	CustomerID     string          `json:"customer_id" binding:"required"`
	PriceID        string          `json:"price_id" binding:"required"`
	Quantity       int             `json:"quantity" binding:"required"`
	DiscountCode   *string         `json:"discount_code,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Metadata       types.Metadata  `json:"metadata,omitempty"`
}

func (r *CreatePurchaseRequest) Validate() error {
	if r.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Purchase must belong to a customer").
			Mark(ierr.ErrValidation)
	}
	if r.PriceID == "" {
		return ierr.NewError("price_id is required").
			WithHint("Purchase must reference a price").
			Mark(ierr.ErrValidation)
	}
	if r.Quantity <= 0 {
		return ierr.NewError("quantity must be greater than 0").
			WithHint("Purchases require a positive quantity").
			Mark(ierr.ErrValidation)
	}
	if r.DiscountAmount.IsNegative() {
		return ierr.NewError("discount_amount cannot be negative").
			WithHint("Discounts must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PurchaseResponse wraps a purchase for API responses.
type PurchaseResponse struct {
	*purchase.Purchase
}
