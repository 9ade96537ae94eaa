package purchase

import (
	"time"

	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// Purchase records an intent-to-buy settled through checkout. Fee and
// discount bookkeeping run before the owning subscription is created; the
// paid flip happens when the provider confirms payment.
type Purchase struct {
	ID             string               `db:"id" json:"id"`
	PurchaseNumber string               `db:"purchase_number" json:"purchase_number"`
	CustomerID     string               `db:"customer_id" json:"customer_id"`
	PriceID        string               `db:"price_id" json:"price_id"`
	Quantity       int                  `db:"quantity" json:"quantity"`
	PurchaseStatus types.PurchaseStatus `db:"purchase_status" json:"purchase_status"`
	Subtotal       decimal.Decimal      `db:"subtotal" json:"subtotal"`
	FeeAmount      decimal.Decimal      `db:"fee_amount" json:"fee_amount"`
	DiscountAmount decimal.Decimal      `db:"discount_amount" json:"discount_amount"`
	Total          decimal.Decimal      `db:"total" json:"total"`
	DiscountCode   *string              `db:"discount_code" json:"discount_code,omitempty"`
	PaidAt         *time.Time           `db:"paid_at" json:"paid_at,omitempty"`
	Livemode       bool                 `db:"livemode" json:"livemode"`
	Metadata       types.Metadata       `db:"metadata" json:"metadata"`
	EnvironmentID  string               `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (p *Purchase) TableName() string {
	return "purchases"
}

func (p *Purchase) Validate() error {
	if p.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Purchase must belong to a customer").
			Mark(ierr.ErrValidation)
	}
	if p.PriceID == "" {
		return ierr.NewError("price_id is required").
			WithHint("Purchase must reference a price").
			Mark(ierr.ErrValidation)
	}
	return p.PurchaseStatus.Validate()
}
