package stripe

import (
	"encoding/json"

	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// EventTypeSetupIntentSucceeded is the only provider event the reconciliation
// workflow consumes.
const EventTypeSetupIntentSucceeded = "setup_intent.succeeded"

// ParseWebhookEvent parses a Stripe webhook event with signature verification
func (c *Client) ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	// Verify the webhook signature, ignoring API version mismatch
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.config.WebhookSecret, options)
	if err != nil {
		c.logger.Errorw("stripe webhook verification failed", "error", err)
		return nil, ierr.NewError("failed to verify webhook signature").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrPermissionDenied)
	}
	return &event, nil
}

// SetupIntentFromEvent extracts the provider-neutral setup intent from a
// setup_intent.* webhook event.
func SetupIntentFromEvent(event *stripe.Event) (*types.SetupIntent, error) {
	var intent stripe.SetupIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to decode setup intent from event payload").
			WithReportableDetails(map[string]interface{}{
				"event_id":   event.ID,
				"event_type": event.Type,
			}).
			Mark(ierr.ErrValidation)
	}
	return toSetupIntent(&intent), nil
}
