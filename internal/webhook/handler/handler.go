package handler

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/meterline/meterline/internal/config"
	"github.com/meterline/meterline/internal/httpclient"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/pubsub"
	pubsubRouter "github.com/meterline/meterline/internal/pubsub/router"
	"github.com/meterline/meterline/internal/types"
	"github.com/meterline/meterline/internal/webhook/payload"
)

// Handler interface for processing webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub  pubsub.PubSub
	config  *config.WebhookConfig
	factory payload.PayloadBuilderFactory
	client  httpclient.Client
	logger  *logger.Logger
}

// NewHandler creates a new webhook delivery handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	factory payload.PayloadBuilderFactory,
	client httpclient.Client,
	logger *logger.Logger,
) (Handler, error) {
	return &handler{
		pubSub:  pubSub,
		config:  &cfg.Webhook,
		factory: factory,
		client:  client,
		logger:  logger,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"webhook_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage processes a single webhook message
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	// restore tenant context for repository lookups during hydration
	ctx = context.WithValue(ctx, types.CtxTenantID, event.TenantID)
	ctx = context.WithValue(ctx, types.CtxEnvironmentID, event.EnvironmentID)
	ctx = context.WithValue(ctx, types.CtxUserID, event.UserID)
	ctx = context.WithValue(ctx, types.CtxLivemode, event.Livemode)

	// Get tenant config
	tenantCfg, ok := h.config.Tenants[event.TenantID]
	if !ok {
		h.logger.Warnw("tenant config not found",
			"tenant_id", event.TenantID,
			"message_uuid", msg.UUID,
		)
		// Don't retry if tenant not found
		return nil
	}

	if !tenantCfg.Enabled {
		h.logger.Debugw("webhooks disabled for tenant",
			"tenant_id", event.TenantID,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	for _, excludedEvent := range tenantCfg.ExcludedEvents {
		if excludedEvent == event.EventName {
			h.logger.Debugw("event excluded for tenant",
				"tenant_id", event.TenantID,
				"event", event.EventName,
			)
			return nil
		}
	}

	// Build event payload
	builder, err := h.factory.GetBuilder(event.EventName)
	if err != nil {
		return err
	}

	webhookPayload, err := builder.BuildPayload(ctx, event.EventName, event.Payload)
	if err != nil {
		return err
	}

	return h.deliver(ctx, &event, tenantCfg, webhookPayload, msg.UUID)
}

// deliver sends the webhook to the tenant endpoint, retrying transient
// failures with exponential backoff before handing the message back to the
// router for redelivery.
func (h *handler) deliver(
	ctx context.Context,
	event *types.WebhookEvent,
	tenantCfg config.TenantWebhookConfig,
	body []byte,
	messageUUID string,
) error {
	headers := make(map[string]string, len(tenantCfg.Headers)+2)
	for k, v := range tenantCfg.Headers {
		headers[k] = v
	}
	headers["X-Webhook-Event"] = event.EventName
	headers["X-Webhook-Hash"] = event.Hash

	req := &httpclient.Request{
		Method:  "POST",
		URL:     tenantCfg.Endpoint,
		Headers: headers,
		Body:    body,
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(h.config.MaxRetries)),
		ctx,
	)

	var statusCode int
	operation := func() error {
		resp, err := h.client.Send(ctx, req)
		if err != nil {
			if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode < 500 {
				// client errors won't heal on retry
				return backoff.Permanent(err)
			}
			return err
		}
		statusCode = resp.StatusCode
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		h.logger.Errorw("failed to send webhook",
			"error", err,
			"message_uuid", messageUUID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook sent successfully",
		"message_uuid", messageUUID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
		"status_code", statusCode,
	)

	return nil
}
