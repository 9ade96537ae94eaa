package dto

import (
	"time"

	"github.com/meterline/meterline/internal/domain/subscription"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

// CreateSubscriptionRequest provisions a subscription on a price.
type CreateSubscriptionRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	PriceID    string `json:"price_id" binding:"required"`
	Quantity   int    `json:"quantity"`
	Name       string `json:"name"`

	// TrialEnd overrides trial computation when set.
	TrialEnd *time.Time `json:"trial_end,omitempty"`

	// BillingAnchor preserves the billing cycle anchor of a replaced
	// subscription on upgrade. Zero means anchor at the start date.
	BillingAnchor time.Time `json:"billing_anchor,omitempty"`

	// SetupIntentID stamps the provider intent that created the
	// subscription. Unique; acts as the reconciliation idempotency key.
	SetupIntentID *string `json:"setup_intent_id,omitempty"`

	IsFreePlan bool           `json:"is_free_plan"`
	Metadata   types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if r.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Subscription must belong to a customer").
			Mark(ierr.ErrValidation)
	}
	if r.PriceID == "" {
		return ierr.NewError("price_id is required").
			WithHint("Subscription must reference a price").
			Mark(ierr.ErrValidation)
	}
	if r.Quantity < 0 {
		return ierr.NewError("quantity cannot be negative").
			WithHint("Subscription quantity must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionResponse wraps a subscription for API responses.
type SubscriptionResponse struct {
	*subscription.Subscription
}
