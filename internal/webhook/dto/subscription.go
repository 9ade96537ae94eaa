package dto

import (
	"github.com/meterline/meterline/internal/domain/subscription"
)

// InternalSubscriptionEvent is the minimal payload services publish; the
// payload builder hydrates it into the full webhook payload at delivery time.
type InternalSubscriptionEvent struct {
	SubscriptionID string `json:"subscription_id"`
}

// SubscriptionWebhookPayload is the payload delivered to webhook consumers
// for subscription lifecycle events.
type SubscriptionWebhookPayload struct {
	ID           string                     `json:"id"`
	Object       string                     `json:"object"`
	EventType    string                     `json:"event_type"`
	Customer     CustomerInfo               `json:"customer"`
	Subscription *subscription.Subscription `json:"subscription"`
}

func NewSubscriptionWebhookPayload(sub *subscription.Subscription, customer CustomerInfo, eventType string) *SubscriptionWebhookPayload {
	return &SubscriptionWebhookPayload{
		ID:           sub.ID,
		Object:       "subscription",
		EventType:    eventType,
		Customer:     customer,
		Subscription: sub,
	}
}
