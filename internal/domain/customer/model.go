package customer

import (
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

// Customer represents a billable customer of an organization.
type Customer struct {
	ID                     string         `db:"id" json:"id"`
	ExternalID             string         `db:"external_id" json:"external_id"`
	Name                   string         `db:"name" json:"name"`
	Email                  string         `db:"email" json:"email"`
	DefaultPaymentMethodID *string        `db:"default_payment_method_id" json:"default_payment_method_id,omitempty"`
	ProviderCustomerID     *string        `db:"provider_customer_id" json:"provider_customer_id,omitempty"`
	Metadata               types.Metadata `db:"metadata" json:"metadata"`
	EnvironmentID          string         `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (c *Customer) TableName() string {
	return "customers"
}

func (c *Customer) Validate() error {
	if c.ExternalID == "" {
		return ierr.NewError("external_id is required").
			WithHint("Customer must carry an external identifier").
			Mark(ierr.ErrValidation)
	}
	return nil
}
