package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/gateway/stripe"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/service"
)

// WebhookHandler receives payment provider webhook events and feeds them into
// the reconciliation workflow.
type WebhookHandler struct {
	stripeClient   *stripe.Client
	reconciliation service.ReconciliationService
	log            *logger.Logger
}

func NewWebhookHandler(
	stripeClient *stripe.Client,
	reconciliation service.ReconciliationService,
	log *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		stripeClient:   stripeClient,
		reconciliation: reconciliation,
		log:            log,
	}
}

// @Summary Handle Stripe webhook events
// @Description Verify and process incoming Stripe webhook events. Only setup_intent.succeeded drives reconciliation; other event types are acknowledged and ignored.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe webhook signature"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.Error(ierr.NewError("missing Stripe-Signature header").
			WithHint("Stripe-Signature header is required").
			Mark(ierr.ErrValidation))
		return
	}

	event, err := h.stripeClient.ParseWebhookEvent(body, signature)
	if err != nil {
		h.log.Errorw("failed to verify stripe webhook event", "error", err)
		c.Error(err)
		return
	}

	if string(event.Type) != stripe.EventTypeSetupIntentSucceeded {
		h.log.Debugw("ignoring stripe webhook event",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	intent, err := stripe.SetupIntentFromEvent(event)
	if err != nil {
		h.log.Errorw("failed to decode setup intent from webhook event",
			"event_id", event.ID,
			"error", err,
		)
		c.Error(err)
		return
	}

	result, err := h.reconciliation.ProcessSetupIntentSucceeded(c.Request.Context(), intent)
	if err != nil {
		h.log.Errorw("failed to reconcile setup intent",
			"event_id", event.ID,
			"setup_intent_id", intent.ID,
			"error", err,
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
