package subscription

import (
	"time"

	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// CustomerID is the identifier for the customer in our system
	CustomerID string `db:"customer_id" json:"customer_id"`

	// PriceID is the price the subscription bills on
	PriceID string `db:"price_id" json:"price_id"`

	// Quantity of the price purchased
	Quantity int `db:"quantity" json:"quantity"`

	// Name is the customer-facing output name of the subscription
	Name string `db:"name" json:"name"`

	// SubscriptionStatus is the lifecycle status of the subscription
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// IsFreePlan marks the organization's default free plan subscription
	IsFreePlan bool `db:"is_free_plan" json:"is_free_plan"`

	// CancellationReason records why the subscription was cancelled
	CancellationReason types.CancellationReason `db:"cancellation_reason" json:"cancellation_reason,omitempty"`

	// CancelledAt is the date the subscription was cancelled
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	// ReplacedBySubscriptionID forward-links an upgraded subscription to its
	// replacement. The chain is directed and acyclic; query helpers follow
	// it to resolve the current subscription.
	ReplacedBySubscriptionID *string `db:"replaced_by_subscription_id" json:"replaced_by_subscription_id,omitempty"`

	// SetupIntentID is the payment provider setup intent that created or
	// activated this subscription. Acts as the reconciliation idempotency
	// key; unique across subscriptions.
	SetupIntentID *string `db:"setup_intent_id" json:"setup_intent_id,omitempty"`

	// DefaultPaymentMethodID is the payment method charged each period
	DefaultPaymentMethodID *string `db:"default_payment_method_id" json:"default_payment_method_id,omitempty"`

	// TrialEnd is the end date of the trial period, if any
	TrialEnd *time.Time `db:"trial_end" json:"trial_end,omitempty"`

	// BillingAnchor aligns future billing cycle dates
	BillingAnchor time.Time `db:"billing_anchor" json:"billing_anchor"`

	// StartDate is the start date of the subscription
	StartDate time.Time `db:"start_date" json:"start_date"`

	// CurrentPeriodStart is the start of the current billing period
	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`

	// CurrentPeriodEnd is the end of the current billing period
	CurrentPeriodEnd time.Time `db:"current_period_end" json:"current_period_end"`

	// Livemode marks live (production) data
	Livemode bool `db:"livemode" json:"livemode"`

	Metadata      types.Metadata `db:"metadata" json:"metadata"`
	EnvironmentID string         `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (s *Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) Validate() error {
	if s.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Subscription must belong to a customer").
			Mark(ierr.ErrValidation)
	}
	if s.PriceID == "" {
		return ierr.NewError("price_id is required").
			WithHint("Subscription must reference a price").
			Mark(ierr.ErrValidation)
	}
	if err := s.SubscriptionStatus.Validate(); err != nil {
		return err
	}
	return s.CancellationReason.Validate()
}

// IsActivePaid reports whether this is a live paid subscription for the
// purposes of the one-active-paid-subscription-per-customer invariant.
func (s *Subscription) IsActivePaid() bool {
	return !s.IsFreePlan && s.SubscriptionStatus.IsActive()
}

// IsActiveFree reports whether this is the customer's live free-plan
// subscription.
func (s *Subscription) IsActiveFree() bool {
	return s.IsFreePlan && s.SubscriptionStatus.IsActive()
}
