package stripe

import (
	"context"

	"github.com/meterline/meterline/internal/config"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// Client handles Stripe API client setup and configuration
type Client struct {
	config *config.StripeConfig
	logger *logger.Logger
}

// NewClient creates a new Stripe client
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	return &Client{
		config: &cfg.Stripe,
		logger: logger,
	}
}

func (c *Client) stripeClient() (*stripe.Client, error) {
	if c.config.SecretKey == "" {
		return nil, ierr.NewError("stripe secret key not configured").
			WithHint("Configure the payment provider before creating intents").
			Mark(ierr.ErrSystem)
	}
	return stripe.NewClient(c.config.SecretKey, nil), nil
}

// CreateSetupIntent creates a provider setup intent carrying the checkout
// session reference in its metadata. The reconciliation workflow relies on
// that metadata to find its way back to the session.
func (c *Client) CreateSetupIntent(ctx context.Context, providerCustomerID string, checkoutSessionID string) (*types.SetupIntent, error) {
	client, err := c.stripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.SetupIntentCreateParams{
		Customer: stripe.String(providerCustomerID),
		Usage:    stripe.String("off_session"),
		Metadata: map[string]string{
			"type":                types.IntentMetadataTypeCheckoutSession,
			"checkout_session_id": checkoutSessionID,
		},
	}

	intent, err := client.V1SetupIntents.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create Stripe setup intent",
			"error", err,
			"checkout_session_id", checkoutSessionID,
		)
		return nil, ierr.NewError("failed to create setup intent").
			WithHint("Unable to create Stripe setup intent").
			WithReportableDetails(map[string]interface{}{
				"checkout_session_id": checkoutSessionID,
			}).
			Mark(ierr.ErrSystem)
	}

	c.logger.Infow("created stripe setup intent",
		"setup_intent_id", intent.ID,
		"checkout_session_id", checkoutSessionID,
	)

	return toSetupIntent(intent), nil
}

// GetSetupIntent fetches a setup intent from Stripe
func (c *Client) GetSetupIntent(ctx context.Context, id string) (*types.SetupIntent, error) {
	client, err := c.stripeClient()
	if err != nil {
		return nil, err
	}

	intent, err := client.V1SetupIntents.Retrieve(ctx, id, nil)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to fetch setup intent from Stripe").
			WithReportableDetails(map[string]interface{}{
				"setup_intent_id": id,
			}).
			Mark(ierr.ErrSystem)
	}

	return toSetupIntent(intent), nil
}

// toSetupIntent converts a Stripe setup intent into the provider-neutral
// shape the reconciliation workflow consumes.
func toSetupIntent(intent *stripe.SetupIntent) *types.SetupIntent {
	out := &types.SetupIntent{
		ID:       intent.ID,
		Status:   types.SetupIntentStatus(intent.Status),
		Metadata: types.Metadata(intent.Metadata),
	}
	if intent.Customer != nil {
		out.CustomerID = intent.Customer.ID
	}
	if intent.PaymentMethod != nil {
		out.PaymentMethodID = intent.PaymentMethod.ID
	}
	return out
}
