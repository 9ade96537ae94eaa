package paymentmethod

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

// PaymentMethod mirrors a payment instrument held at the provider. Keyed by
// the provider's payment method id so webhook redeliveries upsert instead of
// duplicating.
type PaymentMethod struct {
	ID               string         `db:"id" json:"id"`
	CustomerID       string         `db:"customer_id" json:"customer_id"`
	ProviderMethodID string         `db:"provider_method_id" json:"provider_method_id"`
	MethodType       string         `db:"method_type" json:"method_type"`
	Livemode         bool           `db:"livemode" json:"livemode"`
	Metadata         types.Metadata `db:"metadata" json:"metadata"`
	EnvironmentID    string         `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (m *PaymentMethod) TableName() string {
	return "payment_methods"
}

func (m *PaymentMethod) Validate() error {
	if m.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Payment method must belong to a customer").
			Mark(ierr.ErrValidation)
	}
	if m.ProviderMethodID == "" {
		return ierr.NewError("provider_method_id is required").
			WithHint("Payment method must reference the provider instrument").
			Mark(ierr.ErrValidation)
	}
	return nil
}
