package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/meterline/meterline/internal/api/v1"
	"github.com/meterline/meterline/internal/config"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/rest/middleware"
)

type Handlers struct {
	Health          *v1.HealthHandler
	Ledger          *v1.LedgerHandler
	Usage           *v1.UsageHandler
	Credit          *v1.CreditHandler
	Billing         *v1.BillingHandler
	Subscription    *v1.SubscriptionHandler
	Purchase        *v1.PurchaseHandler
	CheckoutSession *v1.CheckoutSessionHandler
	Webhook         *v1.WebhookHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.TenantMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// Provider webhooks sit outside the versioned API surface
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Webhook.HandleStripeWebhook)
	}

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	ledger := router.Group("/ledger")
	{
		ledger.POST("/accounts", handlers.Ledger.CreateAccount)
		ledger.GET("/accounts/:id", handlers.Ledger.GetAccount)
		ledger.GET("/accounts/:id/balance", handlers.Ledger.GetBalance)
		ledger.POST("/transactions", handlers.Ledger.CreateTransaction)
	}

	usage := router.Group("/usage")
	{
		usage.POST("/events", handlers.Usage.IngestEvent)
		usage.GET("/events/:id", handlers.Usage.GetEvent)
	}

	credits := router.Group("/credits")
	{
		credits.POST("", handlers.Credit.IssueCredit)
		credits.POST("/expire", handlers.Credit.ExpireCredits)
		credits.GET("/:id", handlers.Credit.GetCredit)
	}

	billing := router.Group("/billing")
	{
		billing.POST("/recalculations", handlers.Billing.RunRecalculation)
		billing.POST("/recalculations/:id/finalize", handlers.Billing.FinalizeRecalculation)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.CreateSubscription)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.GET("/:id/current", handlers.Subscription.ResolveCurrentSubscription)
	}

	purchases := router.Group("/purchases")
	{
		purchases.POST("", handlers.Purchase.CreatePurchase)
		purchases.GET("/:id", handlers.Purchase.GetPurchase)
	}

	checkout := router.Group("/checkout")
	{
		checkout.POST("/sessions", handlers.CheckoutSession.CreateCheckoutSession)
		checkout.GET("/sessions/:id", handlers.CheckoutSession.GetCheckoutSession)
	}
}
