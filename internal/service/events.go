package service

import (
	"context"
	"encoding/json"

	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/types"
	webhookPublisher "github.com/meterline/meterline/internal/webhook/publisher"
)

// publishWebhookEvent marshals the internal payload and hands it to the
// webhook publisher. Delivery failures are logged and swallowed: event
// emission is a side effect and must never fail the owning business
// operation.
func publishWebhookEvent(
	ctx context.Context,
	publisher webhookPublisher.WebhookPublisher,
	log *logger.Logger,
	eventName string,
	payload interface{},
) {
	if publisher == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Errorw("failed to marshal webhook payload",
			"event_name", eventName,
			"error", err,
		)
		return
	}

	event := types.NewWebhookEvent(ctx, eventName, raw)
	if err := publisher.PublishWebhook(ctx, event); err != nil {
		log.Errorw("failed to publish webhook event",
			"event_name", eventName,
			"event_id", event.ID,
			"error", err,
		)
	}
}
