package price

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// Price is a billable rate attached to a product. Usage prices reference the
// usage meter their costs accrue against.
type Price struct {
	ID              string          `db:"id" json:"id"`
	ProductID       string          `db:"product_id" json:"product_id"`
	PriceType       types.PriceType `db:"price_type" json:"price_type"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	UsageMeterID    *string         `db:"usage_meter_id" json:"usage_meter_id,omitempty"`
	TrialPeriodDays *int            `db:"trial_period_days" json:"trial_period_days,omitempty"`
	IsFreePlan      bool            `db:"is_free_plan" json:"is_free_plan"`
	Metadata        types.Metadata  `db:"metadata" json:"metadata"`
	EnvironmentID   string          `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (p *Price) TableName() string {
	return "prices"
}

func (p *Price) Validate() error {
	if p.ProductID == "" {
		return ierr.NewError("product_id is required").
			WithHint("Price must belong to a product").
			Mark(ierr.ErrValidation)
	}
	if err := p.PriceType.Validate(); err != nil {
		return err
	}
	if p.Currency == "" {
		return ierr.NewError("currency is required").
			WithHint("Price must carry a currency").
			Mark(ierr.ErrValidation)
	}
	if p.Amount.IsNegative() {
		return ierr.NewError("amount cannot be negative").
			WithHint("Price amount must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if p.PriceType == types.PriceTypeUsage && p.UsageMeterID == nil {
		return ierr.NewError("usage price requires a usage meter").
			WithHint("Usage prices must reference the meter their costs accrue against").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsMetered reports whether subscriptions on this price accrue usage costs.
func (p *Price) IsMetered() bool {
	return p.PriceType == types.PriceTypeUsage
}
