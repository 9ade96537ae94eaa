package testutil

import (
	"context"
	"time"

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
	"github.com/meterline/meterline/internal/pubsub/memory"
	"github.com/meterline/meterline/internal/types"
	webhookPublisher "github.com/meterline/meterline/internal/webhook/publisher"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	LedgerRepo          ledger.Repository
	CreditRepo          credit.Repository
	UsageRepo           usage.Repository
	SubscriptionRepo    subscription.Repository
	CustomerRepo        customer.Repository
	OrganizationRepo    organization.Repository
	PriceRepo           price.Repository
	ProductRepo         product.Repository
	PurchaseRepo        purchase.Repository
	PaymentMethodRepo   paymentmethod.Repository
	CheckoutSessionRepo checkoutsession.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: an authenticated tenant context, in-memory stores, and a webhook
// publisher backed by the in-memory pubsub.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	webhookPublisher webhookPublisher.WebhookPublisher
	db               postgres.IClient
	cache            cache.Cache
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = types.SetTenantID(s.ctx, types.DefaultTenantID)
	s.ctx = types.SetUserID(s.ctx, types.DefaultUserID)
	s.ctx = types.SetEnvironmentID(s.ctx, types.GenerateUUID())
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		LedgerRepo:          NewInMemoryLedgerStore(),
		CreditRepo:          NewInMemoryCreditStore(),
		UsageRepo:           NewInMemoryUsageStore(),
		SubscriptionRepo:    NewInMemorySubscriptionStore(),
		CustomerRepo:        NewInMemoryCustomerStore(),
		OrganizationRepo:    NewInMemoryOrganizationStore(),
		PriceRepo:           NewInMemoryPriceStore(),
		ProductRepo:         NewInMemoryProductStore(),
		PurchaseRepo:        NewInMemoryPurchaseStore(),
		PaymentMethodRepo:   NewInMemoryPaymentMethodStore(),
		CheckoutSessionRepo: NewInMemoryCheckoutSessionStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.cache = cache.NewInMemoryCache()

	pubSub := memory.NewPubSub(s.config, s.logger)
	publisher, err := webhookPublisher.NewPublisher(pubSub, s.config, s.logger)
	if err != nil {
		s.T().Fatalf("failed to create webhook publisher: %v", err)
	}
	s.webhookPublisher = publisher
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.LedgerRepo.(*InMemoryLedgerStore).Clear()
	s.stores.CreditRepo.(*InMemoryCreditStore).Clear()
	s.stores.UsageRepo.(*InMemoryUsageStore).Clear()
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.CustomerRepo.(*InMemoryCustomerStore).Clear()
	s.stores.OrganizationRepo.(*InMemoryOrganizationStore).Clear()
	s.stores.PriceRepo.(*InMemoryPriceStore).Clear()
	s.stores.ProductRepo.(*InMemoryProductStore).Clear()
	s.stores.PurchaseRepo.(*InMemoryPurchaseStore).Clear()
	s.stores.PaymentMethodRepo.(*InMemoryPaymentMethodStore).Clear()
	s.stores.CheckoutSessionRepo.(*InMemoryCheckoutSessionStore).Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns the in-memory stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the mock postgres client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetWebhookPublisher returns the test webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() webhookPublisher.WebhookPublisher {
	return s.webhookPublisher
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
