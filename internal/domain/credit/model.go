package credit

import (
	"time"

	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

// Credit is a grant of consumable balance against future usage costs on one
// ledger account. Immutable once issued; consumption and expiry are tracked
// through ledger entries referencing the grant, never by mutating it.
type Credit struct {
	ID              string           `db:"id" json:"id"`
	LedgerAccountID string           `db:"ledger_account_id" json:"ledger_account_id"`
	SubscriptionID  string           `db:"subscription_id" json:"subscription_id"`
	UsageMeterID    string           `db:"usage_meter_id" json:"usage_meter_id"`
	CreditType      types.CreditType `db:"credit_type" json:"credit_type"`
	IssuedAmount    decimal.Decimal  `db:"issued_amount" json:"issued_amount"`
	ExpiresAt       *time.Time       `db:"expires_at" json:"expires_at,omitempty"`
	Priority        *int             `db:"priority" json:"priority,omitempty"`
	Livemode        bool             `db:"livemode" json:"livemode"`
	Metadata        types.Metadata   `db:"metadata" json:"metadata"`
	EnvironmentID   string           `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (c *Credit) TableName() string {
	return "usage_credits"
}

func (c *Credit) Validate() error {
	if c.LedgerAccountID == "" {
		return ierr.NewError("ledger_account_id is required").
			WithHint("Usage credit must be granted to a ledger account").
			Mark(ierr.ErrValidation)
	}
	if err := c.CreditType.Validate(); err != nil {
		return err
	}
	if !c.IssuedAmount.GreaterThan(decimal.Zero) {
		return ierr.NewError("issued amount must be greater than 0").
			WithHint("Credit grants must carry a positive amount").
			WithReportableDetails(map[string]any{
				"issued_amount": c.IssuedAmount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsExpired reports whether the grant can no longer be applied as of the
// given instant.
func (c *Credit) IsExpired(asOf time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(asOf)
}
