package service

import (
	"fmt"
	"testing"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/organization"
	"github.com/meterline/meterline/internal/domain/paymentmethod"
	"github.com/meterline/meterline/internal/domain/price"
	"github.com/meterline/meterline/internal/domain/product"
	"github.com/meterline/meterline/internal/domain/subscription"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/testutil"
	"github.com/meterline/meterline/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	subscriptionService SubscriptionService
	testData            struct {
		organization *organization.Organization
		customer     *customer.Customer
		product      *product.Product
		paidPrice    *price.Price
		meteredPrice *price.Price
		freePrice    *price.Price
		trialPrice   *price.Price
	}
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceTestSuite))
}

func (s *SubscriptionServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.subscriptionService = NewSubscriptionService(testServiceParams(&s.BaseServiceTestSuite))
	s.setupTestData()
}

func (s *SubscriptionServiceTestSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.organization = &organization.Organization{
		ID:            types.DefaultTenantID,
		Name:          "Test Org",
		FeePercentage: decimal.Zero,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().OrganizationRepo.Create(ctx, s.testData.organization))

	s.testData.customer = &customer.Customer{
		ID:         "cust_test_123",
		ExternalID: "ext_cust_test_123",
		Name:       "Test Customer",
		Email:      "test@example.com",
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, s.testData.customer))

	s.testData.product = &product.Product{
		ID:        "prod_test_123",
		Name:      "Test Product",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().ProductRepo.Create(ctx, s.testData.product))

	s.testData.paidPrice = &price.Price{
		ID:        "price_paid",
		ProductID: s.testData.product.ID,
		PriceType: types.PriceTypeFixed,
		Amount:    decimal.NewFromInt(50),
		Currency:  "usd",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PriceRepo.Create(ctx, s.testData.paidPrice))

	s.testData.meteredPrice = &price.Price{
		ID:           "price_metered",
		ProductID:    s.testData.product.ID,
		PriceType:    types.PriceTypeUsage,
		Amount:       decimal.NewFromInt(1),
		Currency:     "usd",
		UsageMeterID: lo.ToPtr("meter_api_calls"),
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PriceRepo.Create(ctx, s.testData.meteredPrice))

	s.testData.freePrice = &price.Price{
		ID:         "price_free",
		ProductID:  s.testData.product.ID,
		PriceType:  types.PriceTypeFixed,
		Amount:     decimal.Zero,
		Currency:   "usd",
		IsFreePlan: true,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PriceRepo.Create(ctx, s.testData.freePrice))

	s.testData.trialPrice = &price.Price{
		ID:              "price_trial",
		ProductID:       s.testData.product.ID,
		PriceType:       types.PriceTypeFixed,
		Amount:          decimal.NewFromInt(30),
		Currency:        "usd",
		TrialPeriodDays: lo.ToPtr(14),
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PriceRepo.Create(ctx, s.testData.trialPrice))
}

func (s *SubscriptionServiceTestSuite) TestCreateSubscription() {
	resp, err := s.subscriptionService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.paidPrice.ID,
	})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	s.Equal(1, resp.Quantity)
	s.False(resp.IsFreePlan)
	s.Nil(resp.TrialEnd)
	s.False(resp.BillingAnchor.IsZero())
}

func (s *SubscriptionServiceTestSuite) TestCreateSubscriptionMetered() {
	resp, err := s.subscriptionService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.meteredPrice.ID,
	})
	s.NoError(err)

	accounts, err := s.GetStores().LedgerRepo.ListAccountsBySubscription(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Len(accounts, 1)
	s.Equal("meter_api_calls", accounts[0].UsageMeterID)
	s.Equal(s.testData.customer.ID, accounts[0].CustomerID)
}

func (s *SubscriptionServiceTestSuite) TestCreateSubscriptionUniqueness() {
	_, err := s.subscriptionService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.paidPrice.ID,
	})
	s.NoError(err)

	_, err = s.subscriptionService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.paidPrice.ID,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))

	// A free plan subscription is still allowed next to the paid one.
	free, err := s.subscriptionService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.freePrice.ID,
	})
	s.NoError(err)
	s.True(free.IsFreePlan)
}

func (s *SubscriptionServiceTestSuite) TestCreateSubscriptionMultipleAllowed() {
	s.testData.organization.AllowMultipleSubscriptionsPerCustomer = true

	for i := 0; i < 2; i++ {
		_, err := s.subscriptionService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
			CustomerID: s.testData.customer.ID,
			PriceID:    s.testData.paidPrice.ID,
		})
		s.NoError(err)
	}
}

func (s *SubscriptionServiceTestSuite) TestTrialEligibility() {
	first, err := s.subscriptionService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.trialPrice.ID,
	})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusTrialing, first.SubscriptionStatus)
	s.NotNil(first.TrialEnd)

	trialed, err := s.subscriptionService.HasEverTrialed(s.GetContext(), s.testData.customer.ID)
	s.NoError(err)
	s.True(trialed)

	// The trial is once per customer: a later subscription on the same
	// price starts without one, even after the first is cancelled.
	first.Subscription.SubscriptionStatus = types.SubscriptionStatusCancelled
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), first.Subscription))

	second, err := s.subscriptionService.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.trialPrice.ID,
	})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, second.SubscriptionStatus)
	s.Nil(second.TrialEnd)
}

func (s *SubscriptionServiceTestSuite) TestActivateSubscription() {
	sub := s.seedSubscription("subs_incomplete", types.SubscriptionStatusIncomplete, false)
	method := s.seedPaymentMethod("pm_test_1")

	resp, err := s.subscriptionService.ActivateSubscription(s.GetContext(), sub.ID, "seti_test_1", method.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.SubscriptionStatus)
	s.Equal("seti_test_1", *resp.SetupIntentID)
	s.Equal(method.ID, *resp.DefaultPaymentMethodID)

	// The intent id is the replay lookup key.
	found, err := s.GetStores().SubscriptionRepo.GetBySetupIntentID(s.GetContext(), "seti_test_1")
	s.NoError(err)
	s.Equal(sub.ID, found.ID)
}

func (s *SubscriptionServiceTestSuite) TestActivateSubscriptionRequiresIncomplete() {
	method := s.seedPaymentMethod("pm_test_1")

	for i, status := range []types.SubscriptionStatus{
		types.SubscriptionStatusActive,
		types.SubscriptionStatusCancelled,
		types.SubscriptionStatusTrialing,
	} {
		sub := s.seedSubscription(fmt.Sprintf("subs_%d", i), status, false)

		_, err := s.subscriptionService.ActivateSubscription(s.GetContext(), sub.ID, "seti_test_1", method.ID)
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err))

		// The rejected subscription keeps its status and never gets the
		// intent id stamped.
		kept, getErr := s.GetStores().SubscriptionRepo.GetByID(s.GetContext(), sub.ID)
		s.NoError(getErr)
		s.Equal(status, kept.SubscriptionStatus)
		s.Nil(kept.SetupIntentID)
	}
}

func (s *SubscriptionServiceTestSuite) TestActivateSubscriptionRunsFirstBilling() {
	sub := s.seedSubscription("subs_metered", types.SubscriptionStatusIncomplete, false)
	method := s.seedPaymentMethod("pm_test_1")

	account := s.seedLedgerAccount(sub.ID)

	_, err := s.subscriptionService.ActivateSubscription(s.GetContext(), sub.ID, "seti_test_2", method.ID)
	s.NoError(err)

	run, err := s.GetStores().LedgerRepo.GetTransactionByIdempotencyKey(s.GetContext(), activationIdempotencyKey(sub.ID, account.ID))
	s.NoError(err)
	s.Equal(types.LedgerTransactionTypeBillingRecalculated, run.TxType)
}

func (s *SubscriptionServiceTestSuite) TestActivateSubscriptionUnknownPaymentMethod() {
	sub := s.seedSubscription("subs_incomplete", types.SubscriptionStatusIncomplete, false)

	_, err := s.subscriptionService.ActivateSubscription(s.GetContext(), sub.ID, "seti_test_1", "pm_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceTestSuite) TestCancelFreeSubscriptionForUpgrade() {
	cancelled, err := s.subscriptionService.CancelFreeSubscriptionForUpgrade(s.GetContext(), s.testData.customer.ID)
	s.NoError(err)
	s.Nil(cancelled)

	free := s.seedSubscription("subs_free", types.SubscriptionStatusActive, true)

	cancelled, err = s.subscriptionService.CancelFreeSubscriptionForUpgrade(s.GetContext(), s.testData.customer.ID)
	s.NoError(err)
	s.Equal(free.ID, cancelled.ID)
	s.Equal(types.SubscriptionStatusCancelled, cancelled.SubscriptionStatus)
	s.Equal(types.CancellationReasonUpgradedToPaid, cancelled.CancellationReason)
	s.NotNil(cancelled.CancelledAt)
}

func (s *SubscriptionServiceTestSuite) TestCancelFreeSubscriptionMultipleFree() {
	s.seedSubscription("subs_free_1", types.SubscriptionStatusActive, true)
	s.seedSubscription("subs_free_2", types.SubscriptionStatusActive, true)

	_, err := s.subscriptionService.CancelFreeSubscriptionForUpgrade(s.GetContext(), s.testData.customer.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceTestSuite) TestLinkUpgradedSubscriptions() {
	old := s.seedSubscription("subs_old", types.SubscriptionStatusCancelled, true)
	s.seedSubscription("subs_new", types.SubscriptionStatusActive, false)

	s.NoError(s.subscriptionService.LinkUpgradedSubscriptions(s.GetContext(), old.ID, "subs_new"))

	// Re-linking to the same target is a no-op.
	s.NoError(s.subscriptionService.LinkUpgradedSubscriptions(s.GetContext(), old.ID, "subs_new"))

	// Re-linking to a different target is a conflict.
	err := s.subscriptionService.LinkUpgradedSubscriptions(s.GetContext(), old.ID, "subs_other")
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *SubscriptionServiceTestSuite) TestResolveCurrentSubscription() {
	a := s.seedSubscription("subs_a", types.SubscriptionStatusCancelled, true)
	b := s.seedSubscription("subs_b", types.SubscriptionStatusCancelled, false)
	c := s.seedSubscription("subs_c", types.SubscriptionStatusActive, false)

	a.ReplacedBySubscriptionID = &b.ID
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), a))
	b.ReplacedBySubscriptionID = &c.ID
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), b))

	resp, err := s.subscriptionService.ResolveCurrentSubscription(s.GetContext(), a.ID)
	s.NoError(err)
	s.Equal(c.ID, resp.ID)
}

func (s *SubscriptionServiceTestSuite) TestResolveCurrentSubscriptionCycle() {
	a := s.seedSubscription("subs_a", types.SubscriptionStatusCancelled, false)
	b := s.seedSubscription("subs_b", types.SubscriptionStatusCancelled, false)

	a.ReplacedBySubscriptionID = &b.ID
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), a))
	b.ReplacedBySubscriptionID = &a.ID
	s.NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), b))

	_, err := s.subscriptionService.ResolveCurrentSubscription(s.GetContext(), a.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceTestSuite) TestUpdateDefaultPaymentMethod() {
	sub := s.seedSubscription("subs_active", types.SubscriptionStatusActive, false)
	method := s.seedPaymentMethod("pm_test_1")

	resp, err := s.subscriptionService.UpdateDefaultPaymentMethod(s.GetContext(), sub.ID, method.ID)
	s.NoError(err)
	s.Equal(method.ID, *resp.DefaultPaymentMethodID)
}

func (s *SubscriptionServiceTestSuite) TestUpdateDefaultPaymentMethodCreditTrial() {
	sub := s.seedSubscription("subs_credit_trial", types.SubscriptionStatusCreditTrial, false)
	method := s.seedPaymentMethod("pm_test_1")

	_, err := s.subscriptionService.UpdateDefaultPaymentMethod(s.GetContext(), sub.ID, method.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceTestSuite) seedSubscription(id string, status types.SubscriptionStatus, freePlan bool) *subscription.Subscription {
	now := s.GetNow()
	sub := &subscription.Subscription{
		ID:                 id,
		CustomerID:         s.testData.customer.ID,
		PriceID:            s.testData.paidPrice.ID,
		Quantity:           1,
		SubscriptionStatus: status,
		IsFreePlan:         freePlan,
		BillingAnchor:      now,
		StartDate:          now,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		EnvironmentID:      types.GetEnvironmentID(s.GetContext()),
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *SubscriptionServiceTestSuite) seedLedgerAccount(subscriptionID string) *ledger.Account {
	account := &ledger.Account{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ACCOUNT),
		SubscriptionID: subscriptionID,
		UsageMeterID:   "meter_api_calls",
		CustomerID:     s.testData.customer.ID,
		Currency:       "usd",
		EnvironmentID:  types.GetEnvironmentID(s.GetContext()),
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().LedgerRepo.CreateAccount(s.GetContext(), account))
	return account
}

func (s *SubscriptionServiceTestSuite) seedPaymentMethod(id string) *paymentmethod.PaymentMethod {
	method := &paymentmethod.PaymentMethod{
		ID:               id,
		CustomerID:       s.testData.customer.ID,
		ProviderMethodID: "pm_provider_" + id,
		MethodType:       "card",
		EnvironmentID:    types.GetEnvironmentID(s.GetContext()),
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PaymentMethodRepo.Create(s.GetContext(), method))
	return method
}
