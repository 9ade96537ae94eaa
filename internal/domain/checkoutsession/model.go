package checkoutsession

import (
	"time"

	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

// CheckoutSession records an in-progress purchase, activation or
// payment-method-addition flow. The session type discriminates which payload
// fields must be present; Validate enforces the variant shape explicitly.
// Once the status is terminal the session is immutable.
type CheckoutSession struct {
	ID            string                      `db:"id" json:"id"`
	SessionType   types.CheckoutSessionType   `db:"session_type" json:"session_type"`
	SessionStatus types.CheckoutSessionStatus `db:"session_status" json:"session_status"`
	CustomerID    string                      `db:"customer_id" json:"customer_id"`

	// Variant payload. Which fields are required depends on SessionType.
	PriceID              *string `db:"price_id" json:"price_id,omitempty"`
	Quantity             int     `db:"quantity" json:"quantity"`
	TargetSubscriptionID *string `db:"target_subscription_id" json:"target_subscription_id,omitempty"`
	PurchaseID           *string `db:"purchase_id" json:"purchase_id,omitempty"`
	InvoiceID            *string `db:"invoice_id" json:"invoice_id,omitempty"`

	// OutputName and OutputMetadata are copied onto the subscription the
	// session creates.
	OutputName     string         `db:"output_name" json:"output_name"`
	OutputMetadata types.Metadata `db:"output_metadata" json:"output_metadata"`

	// PreserveBillingCycleAnchor keeps the replaced subscription's billing
	// anchor when upgrading.
	PreserveBillingCycleAnchor bool `db:"preserve_billing_cycle_anchor" json:"preserve_billing_cycle_anchor"`

	// AutomaticallyUpdateSubscriptions propagates a newly added payment
	// method to all of the customer's subscriptions.
	AutomaticallyUpdateSubscriptions bool `db:"automatically_update_subscriptions" json:"automatically_update_subscriptions"`

	ExpiresAt     *time.Time     `db:"expires_at" json:"expires_at,omitempty"`
	Livemode      bool           `db:"livemode" json:"livemode"`
	Metadata      types.Metadata `db:"metadata" json:"metadata"`
	EnvironmentID string         `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (s *CheckoutSession) TableName() string {
	return "checkout_sessions"
}

func (s *CheckoutSession) Validate() error {
	if err := s.SessionType.Validate(); err != nil {
		return err
	}
	if s.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Checkout session must belong to a customer").
			Mark(ierr.ErrValidation)
	}

	switch s.SessionType {
	case types.CheckoutSessionTypeProduct:
		if s.PriceID == nil {
			return s.missingField("price_id")
		}
		if s.Quantity <= 0 {
			return ierr.NewError("quantity must be greater than 0").
				WithHint("Product checkout sessions require a positive quantity").
				Mark(ierr.ErrValidation)
		}
	case types.CheckoutSessionTypePurchase:
		if s.PriceID == nil {
			return s.missingField("price_id")
		}
		if s.PurchaseID == nil {
			return s.missingField("purchase_id")
		}
	case types.CheckoutSessionTypeInvoice:
		if s.InvoiceID == nil {
			return s.missingField("invoice_id")
		}
	case types.CheckoutSessionTypeActivateSubscription:
		if s.TargetSubscriptionID == nil {
			return s.missingField("target_subscription_id")
		}
	case types.CheckoutSessionTypeAddPaymentMethod:
		// no extra payload required; target_subscription_id is optional
	}
	return nil
}

func (s *CheckoutSession) missingField(field string) error {
	return ierr.NewError(field+" is required").
		WithHintf("Checkout sessions of type %s require %s", s.SessionType, field).
		WithReportableDetails(map[string]any{
			"session_type": s.SessionType,
			"field":        field,
		}).
		Mark(ierr.ErrValidation)
}

// IsTerminal reports whether the session has finished processing.
func (s *CheckoutSession) IsTerminal() bool {
	return s.SessionStatus.IsTerminal()
}
