package dto

import (
	"context"

	"github.com/meterline/meterline/internal/domain/checkoutsession"
	"github.com/meterline/meterline/internal/types"
)

// CreateCheckoutSessionRequest opens a checkout session. The session type
// discriminates which payload fields are required; validation happens on the
// domain model.
type CreateCheckoutSessionRequest struct {
	SessionType types.CheckoutSessionType `json:"session_type" binding:"required"`
	CustomerID  string                    `json:"customer_id" binding:"required"`

	PriceID              *string `json:"price_id,omitempty"`
	Quantity             int     `json:"quantity"`
	TargetSubscriptionID *string `json:"target_subscription_id,omitempty"`
	PurchaseID           *string `json:"purchase_id,omitempty"`
	InvoiceID            *string `json:"invoice_id,omitempty"`

	OutputName     string         `json:"output_name,omitempty"`
	OutputMetadata types.Metadata `json:"output_metadata,omitempty"`

	PreserveBillingCycleAnchor       bool `json:"preserve_billing_cycle_anchor"`
	AutomaticallyUpdateSubscriptions bool `json:"automatically_update_subscriptions"`

	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateCheckoutSessionRequest) ToCheckoutSession(ctx context.Context) *checkoutsession.CheckoutSession {
	return &checkoutsession.CheckoutSession{
		ID:                               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHECKOUT_SESSION),
		SessionType:                      r.SessionType,
		SessionStatus:                    types.CheckoutSessionStatusOpen,
		CustomerID:                       r.CustomerID,
		PriceID:                          r.PriceID,
		Quantity:                         r.Quantity,
		TargetSubscriptionID:             r.TargetSubscriptionID,
		PurchaseID:                       r.PurchaseID,
		InvoiceID:                        r.InvoiceID,
		OutputName:                       r.OutputName,
		OutputMetadata:                   r.OutputMetadata,
		PreserveBillingCycleAnchor:       r.PreserveBillingCycleAnchor,
		AutomaticallyUpdateSubscriptions: r.AutomaticallyUpdateSubscriptions,
		Livemode:                         types.GetLivemode(ctx),
		Metadata:                         r.Metadata,
		EnvironmentID:                    types.GetEnvironmentID(ctx),
		BaseModel:                        types.GetDefaultBaseModel(ctx),
	}
}

// CheckoutSessionResponse wraps a checkout session for API responses.
type CheckoutSessionResponse struct {
	*checkoutsession.CheckoutSession
}
