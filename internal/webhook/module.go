package webhook

import (
	"github.com/meterline/meterline/internal/config"
	"github.com/meterline/meterline/internal/domain/credit"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/paymentmethod"
	"github.com/meterline/meterline/internal/domain/purchase"
	"github.com/meterline/meterline/internal/domain/subscription"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/pubsub"
	"github.com/meterline/meterline/internal/pubsub/memory"
	"github.com/meterline/meterline/internal/types"
	"github.com/meterline/meterline/internal/webhook/handler"
	"github.com/meterline/meterline/internal/webhook/payload"
	"github.com/meterline/meterline/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		// PubSub for sending webhook events
		providePubSub,

		// Publisher for sending webhook events
		publisher.NewPublisher,

		// Handler for processing webhook events
		handler.NewHandler,

		// Payload builder factory and services
		providePayloadBuilderFactory,

		// Main webhook service
		NewWebhookService,
	),
)

// providePayloadBuilderFactory creates a new payload builder factory with all required lookups
func providePayloadBuilderFactory(
	customerRepo customer.Repository,
	subscriptionRepo subscription.Repository,
	purchaseRepo purchase.Repository,
	paymentMethodRepo paymentmethod.Repository,
	ledgerRepo ledger.Repository,
	creditRepo credit.Repository,
) payload.PayloadBuilderFactory {
	services := payload.NewServices(
		customerRepo,
		subscriptionRepo,
		purchaseRepo,
		paymentMethodRepo,
		ledgerRepo,
		creditRepo,
	)
	return payload.NewPayloadBuilderFactory(services)
}

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	switch cfg.Webhook.PubSub {
	case types.MemoryPubSub:
		return memory.NewPubSub(cfg, logger)
	}
	panic("unsupported pubsub type")
}
