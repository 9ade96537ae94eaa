package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meterline/meterline/internal/api"
	v1 "github.com/meterline/meterline/internal/api/v1"
	"github.com/meterline/meterline/internal/cache"
	"github.com/meterline/meterline/internal/config"
	"github.com/meterline/meterline/internal/gateway/stripe"
	"github.com/meterline/meterline/internal/httpclient"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/postgres"
	pubsubRouter "github.com/meterline/meterline/internal/pubsub/router"
	"github.com/meterline/meterline/internal/repository"
	"github.com/meterline/meterline/internal/service"
	"github.com/meterline/meterline/internal/types"
	"github.com/meterline/meterline/internal/webhook"
	"go.uber.org/fx"
)

// @title Meterline API
// @version 1.0
// @description Usage-based billing ledger and checkout reconciliation service
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Payment provider
			stripe.NewClient,

			// PubSub
			pubsubRouter.NewRouter,
		),

		// Postgres
		postgres.Module(),

		// Repositories
		repository.Module(),

		// Webhook delivery
		webhook.Module,
	)

	// Services
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewLedgerService,
			service.NewUsageService,
			service.NewCreditService,
			service.NewCreditApplicationService,
			service.NewSubscriptionService,
			service.NewPurchaseService,
			service.NewPaymentMethodService,
			service.NewCheckoutSessionService,
			service.NewReconciliationService,
		),
	)

	// HTTP API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	stripeClient *stripe.Client,
	ledgerService service.LedgerService,
	usageService service.UsageService,
	creditService service.CreditService,
	creditApplicationService service.CreditApplicationService,
	subscriptionService service.SubscriptionService,
	purchaseService service.PurchaseService,
	checkoutSessionService service.CheckoutSessionService,
	reconciliationService service.ReconciliationService,
) api.Handlers {
	return api.Handlers{
		Health:          v1.NewHealthHandler(logger),
		Ledger:          v1.NewLedgerHandler(ledgerService, logger),
		Usage:           v1.NewUsageHandler(usageService, logger),
		Credit:          v1.NewCreditHandler(creditService, logger),
		Billing:         v1.NewBillingHandler(creditApplicationService, logger),
		Subscription:    v1.NewSubscriptionHandler(subscriptionService, logger),
		Purchase:        v1.NewPurchaseHandler(purchaseService, logger),
		CheckoutSession: v1.NewCheckoutSessionHandler(checkoutSessionService, logger),
		Webhook:         v1.NewWebhookHandler(stripeClient, reconciliationService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	webhookService *webhook.WebhookService,
	router *pubsubRouter.Router,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeProd:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, webhookService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	webhookService *webhook.WebhookService,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := webhookService.Start(ctx); err != nil {
				return err
			}
			log.Info("starting message router")
			go func() {
				if err := router.Run(); err != nil {
					log.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping message router")
			if err := webhookService.Stop(); err != nil {
				log.Errorw("failed to stop webhook service", "error", err)
			}
			return router.Close()
		},
	})
}
