package service

import (
	"github.com/meterline/meterline/internal/testutil"
)

// testServiceParams assembles ServiceParams from the in-memory stores of a
// base suite.
func testServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		DB:                  s.GetDB(),
		Cache:               s.GetCache(),
		LedgerRepo:          stores.LedgerRepo,
		CreditRepo:          stores.CreditRepo,
		UsageRepo:           stores.UsageRepo,
		SubRepo:             stores.SubscriptionRepo,
		CustomerRepo:        stores.CustomerRepo,
		OrganizationRepo:    stores.OrganizationRepo,
		PriceRepo:           stores.PriceRepo,
		ProductRepo:         stores.ProductRepo,
		PurchaseRepo:        stores.PurchaseRepo,
		PaymentMethodRepo:   stores.PaymentMethodRepo,
		CheckoutSessionRepo: stores.CheckoutSessionRepo,
		WebhookPublisher:    s.GetWebhookPublisher(),
	}
}
