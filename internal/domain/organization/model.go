package organization

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// Organization is a merchant tenant of the platform. Its ID doubles as the
// tenant id carried in request contexts.
type Organization struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// AllowMultipleSubscriptionsPerCustomer relaxes the
	// one-active-paid-subscription-per-customer invariant.
	AllowMultipleSubscriptionsPerCustomer bool `db:"allow_multiple_subscriptions_per_customer" json:"allow_multiple_subscriptions_per_customer"`

	// FeePercentage is the platform fee taken on purchases, in percent.
	FeePercentage decimal.Decimal `db:"fee_percentage" json:"fee_percentage"`

	Metadata types.Metadata `db:"metadata" json:"metadata"`
	types.BaseModel
}

func (o *Organization) TableName() string {
	return "organizations"
}

func (o *Organization) Validate() error {
	if o.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Organization name is required").
			Mark(ierr.ErrValidation)
	}
	if o.FeePercentage.IsNegative() {
		return ierr.NewError("fee percentage cannot be negative").
			WithHint("Fee percentage must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}
