package types

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// WebhookEvent represents a business event to be delivered to downstream
// consumers. Hash is a deterministic content hash consumers use to
// deduplicate redeliveries.
type WebhookEvent struct {
	ID            string          `json:"id"`
	EventName     string          `json:"event_name"`
	TenantID      string          `json:"tenant_id"`
	EnvironmentID string          `json:"environment_id"`
	UserID        string          `json:"user_id"`
	Livemode      bool            `json:"livemode"`
	Timestamp     time.Time       `json:"timestamp"`
	Hash          string          `json:"hash"`
	Payload       json.RawMessage `json:"payload"`
}

// NewWebhookEvent builds an event for the current tenant context and stamps
// the dedup hash.
func NewWebhookEvent(ctx context.Context, eventName string, payload json.RawMessage) *WebhookEvent {
	event := &WebhookEvent{
		ID:            GenerateUUIDWithPrefix(UUID_PREFIX_WEBHOOK_EVENT),
		EventName:     eventName,
		TenantID:      GetTenantID(ctx),
		EnvironmentID: GetEnvironmentID(ctx),
		UserID:        GetUserID(ctx),
		Livemode:      GetLivemode(ctx),
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}
	event.Hash = event.contentHash()
	return event
}

// contentHash hashes the identity-bearing fields of the event. The id and
// timestamp are excluded so a replayed emission of the same business
// transition produces the same hash.
func (e *WebhookEvent) contentHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%t|", e.EventName, e.TenantID, e.EnvironmentID, e.Livemode)
	h.Write(e.Payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Common webhook event names

// subscription event names
const (
	WebhookEventSubscriptionCreated   = "subscription.created"
	WebhookEventSubscriptionActivated = "subscription.activated"
	WebhookEventSubscriptionCancelled = "subscription.cancelled"
	WebhookEventSubscriptionUpgraded  = "subscription.upgraded"
)

// purchase event names
const (
	WebhookEventPurchaseCompleted = "purchase.completed"
)

// payment method event names
const (
	WebhookEventPaymentMethodAttached = "payment_method.attached"
)

// ledger event names
const (
	WebhookEventLedgerTransactionCreated = "ledger.transaction.created"
	WebhookEventCreditGrantExpired       = "credit.grant.expired"
)
