package types

import (
	"encoding/json"

	ierr "github.com/meterline/meterline/internal/errors"
)

// SetupIntentStatus mirrors the payment provider's setup intent status values.
type SetupIntentStatus string

const (
	SetupIntentStatusSucceeded             SetupIntentStatus = "succeeded"
	SetupIntentStatusProcessing            SetupIntentStatus = "processing"
	SetupIntentStatusCanceled              SetupIntentStatus = "canceled"
	SetupIntentStatusRequiresPaymentMethod SetupIntentStatus = "requires_payment_method"
)

// SetupIntent is the provider-neutral view of a payment provider setup
// intent. Gateway adapters translate provider payloads into this shape so the
// reconciliation workflow stays provider-agnostic.
type SetupIntent struct {
	ID              string            `json:"id"`
	Status          SetupIntentStatus `json:"status"`
	CustomerID      string            `json:"customer"`
	PaymentMethodID string            `json:"payment_method"`
	Metadata        Metadata          `json:"metadata"`
}

// IntentMetadataTypeCheckoutSession is the only metadata shape accepted on
// intents processed by the reconciliation workflow.
const IntentMetadataTypeCheckoutSession = "checkout_session"

// SetupIntentMetadata is the decoded metadata contract embedded on provider
// intents created by this system.
type SetupIntentMetadata struct {
	Type              string `json:"type"`
	CheckoutSessionID string `json:"checkout_session_id"`
}

func (m SetupIntentMetadata) Validate() error {
	if m.Type != IntentMetadataTypeCheckoutSession {
		return ierr.NewError("unexpected intent metadata type").
			WithHint("Intent metadata must reference a checkout session").
			WithReportableDetails(map[string]any{
				"type": m.Type,
			}).
			Mark(ierr.ErrValidation)
	}
	if m.CheckoutSessionID == "" {
		return ierr.NewError("checkout_session_id is required in intent metadata").
			WithHint("Intent metadata must reference a checkout session").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ParseSetupIntentMetadata decodes and validates the metadata map carried on
// a provider intent. Any other shape fails validation.
func ParseSetupIntentMetadata(metadata Metadata) (*SetupIntentMetadata, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid intent metadata").
			Mark(ierr.ErrValidation)
	}

	var parsed SetupIntentMetadata
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid intent metadata").
			Mark(ierr.ErrValidation)
	}

	if err := parsed.Validate(); err != nil {
		return nil, err
	}
	return &parsed, nil
}
