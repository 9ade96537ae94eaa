package service

import (
	"github.com/meterline/meterline/internal/cache"
	"github.com/meterline/meterline/internal/config"
	"github.com/meterline/meterline/internal/domain/checkoutsession"
	"github.com/meterline/meterline/internal/domain/credit"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/organization"
	"github.com/meterline/meterline/internal/domain/paymentmethod"
	"github.com/meterline/meterline/internal/domain/price"
	"github.com/meterline/meterline/internal/domain/product"
	"github.com/meterline/meterline/internal/domain/purchase"
	"github.com/meterline/meterline/internal/domain/subscription"
	"github.com/meterline/meterline/internal/domain/usage"
	"github.com/meterline/meterline/internal/logger"
	"github.com/meterline/meterline/internal/postgres"
	webhookPublisher "github.com/meterline/meterline/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache

	// Repositories
	LedgerRepo          ledger.Repository
	CreditRepo          credit.Repository
	UsageRepo           usage.Repository
	SubRepo             subscription.Repository
	CustomerRepo        customer.Repository
	OrganizationRepo    organization.Repository
	PriceRepo           price.Repository
	ProductRepo         product.Repository
	PurchaseRepo        purchase.Repository
	PaymentMethodRepo   paymentmethod.Repository
	CheckoutSessionRepo checkoutsession.Repository

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher
}

// NewServiceParams assembles the common dependency bundle for services
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	ledgerRepo ledger.Repository,
	creditRepo credit.Repository,
	usageRepo usage.Repository,
	subRepo subscription.Repository,
	customerRepo customer.Repository,
	organizationRepo organization.Repository,
	priceRepo price.Repository,
	productRepo product.Repository,
	purchaseRepo purchase.Repository,
	paymentMethodRepo paymentmethod.Repository,
	checkoutSessionRepo checkoutsession.Repository,
	webhookPublisher webhookPublisher.WebhookPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:              logger,
		Config:              config,
		DB:                  db,
		Cache:               cache,
		LedgerRepo:          ledgerRepo,
		CreditRepo:          creditRepo,
		UsageRepo:           usageRepo,
		SubRepo:             subRepo,
		CustomerRepo:        customerRepo,
		OrganizationRepo:    organizationRepo,
		PriceRepo:           priceRepo,
		ProductRepo:         productRepo,
		PurchaseRepo:        purchaseRepo,
		PaymentMethodRepo:   paymentMethodRepo,
		CheckoutSessionRepo: checkoutSessionRepo,
		WebhookPublisher:    webhookPublisher,
	}
}
