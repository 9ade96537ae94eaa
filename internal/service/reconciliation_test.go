package service

import (
	"testing"
	"time"

	"github.com/meterline/meterline/internal/domain/checkoutsession"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/organization"
	"github.com/meterline/meterline/internal/domain/price"
	"github.com/meterline/meterline/internal/domain/product"
	"github.com/meterline/meterline/internal/domain/purchase"
	"github.com/meterline/meterline/internal/domain/subscription"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/testutil"
	"github.com/meterline/meterline/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	reconciliationService ReconciliationService
	testData              struct {
		organization *organization.Organization
		customer     *customer.Customer
		paidPrice    *price.Price
		meteredPrice *price.Price
	}
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}

func (s *ReconciliationServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.reconciliationService = NewReconciliationService(testServiceParams(&s.BaseServiceTestSuite))
	s.setupTestData()
}

func (s *ReconciliationServiceTestSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.organization = &organization.Organization{
		ID:            types.DefaultTenantID,
		Name:          "Test Org",
		FeePercentage: decimal.NewFromInt(10),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().OrganizationRepo.Create(ctx, s.testData.organization))

	s.testData.customer = &customer.Customer{
		ID:         "cust_test_123",
		ExternalID: "ext_cust_test_123",
		Name:       "Test Customer",
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, s.testData.customer))

	prod := &product.Product{
		ID:        "prod_test_123",
		Name:      "Test Product",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().ProductRepo.Create(ctx, prod))

	s.testData.paidPrice = &price.Price{
		ID:        "price_paid",
		ProductID: prod.ID,
		PriceType: types.PriceTypeFixed,
		Amount:    decimal.NewFromInt(50),
		Currency:  "usd",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PriceRepo.Create(ctx, s.testData.paidPrice))

	s.testData.meteredPrice = &price.Price{
		ID:           "price_metered",
		ProductID:    prod.ID,
		PriceType:    types.PriceTypeUsage,
		Amount:       decimal.NewFromInt(1),
		Currency:     "usd",
		UsageMeterID: lo.ToPtr("meter_api_calls"),
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PriceRepo.Create(ctx, s.testData.meteredPrice))
}

func (s *ReconciliationServiceTestSuite) TestMissingIntent() {
	_, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), nil)
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), &types.SetupIntent{})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ReconciliationServiceTestSuite) TestIntentNotSucceeded() {
	session := s.seedSession(types.CheckoutSessionTypeAddPaymentMethod, nil)
	intent := s.newIntent("seti_1", session.ID)
	intent.Status = types.SetupIntentStatusProcessing

	_, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), intent)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ReconciliationServiceTestSuite) TestInvalidMetadata() {
	intent := &types.SetupIntent{
		ID:              "seti_1",
		Status:          types.SetupIntentStatusSucceeded,
		PaymentMethodID: "pm_provider_1",
		Metadata:        types.Metadata{"type": "payment_link"},
	}

	_, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), intent)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ReconciliationServiceTestSuite) TestUnknownSession() {
	intent := s.newIntent("seti_1", "cs_missing")

	_, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), intent)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ReconciliationServiceTestSuite) TestTerminalSessionNoOp() {
	session := s.seedSession(types.CheckoutSessionTypeAddPaymentMethod, func(cs *checkoutsession.CheckoutSession) {
		cs.SessionStatus = types.CheckoutSessionStatusFailed
	})

	result, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.True(result.TerminalNoOp)
	s.Equal(types.CheckoutSessionStatusFailed, result.SessionStatus)
	s.NotNil(result.Organization)
	s.NotNil(result.Customer)
	s.Nil(result.PaymentMethod)
}

func (s *ReconciliationServiceTestSuite) TestAddPaymentMethod() {
	sub := s.seedSubscription("subs_active", types.SubscriptionStatusActive, false, nil)
	session := s.seedSession(types.CheckoutSessionTypeAddPaymentMethod, func(cs *checkoutsession.CheckoutSession) {
		cs.AutomaticallyUpdateSubscriptions = true
	})

	result, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.False(result.Replayed)
	s.Equal(types.CheckoutSessionStatusSucceeded, result.SessionStatus)
	s.NotNil(result.PaymentMethod)
	s.Equal("pm_provider_1", result.PaymentMethod.ProviderMethodID)

	// The new method propagates to the customer's live subscriptions.
	updated, err := s.GetStores().SubscriptionRepo.GetByID(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(result.PaymentMethod.ID, *updated.DefaultPaymentMethodID)

	// The settled session makes a redelivery a terminal no-op.
	again, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.True(again.TerminalNoOp)
}

func (s *ReconciliationServiceTestSuite) TestAddPaymentMethodWithTarget() {
	sub := s.seedSubscription("subs_target", types.SubscriptionStatusActive, false, nil)
	session := s.seedSession(types.CheckoutSessionTypeAddPaymentMethod, func(cs *checkoutsession.CheckoutSession) {
		cs.TargetSubscriptionID = &sub.ID
	})

	result, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.NotNil(result.Subscription)
	s.Equal(sub.ID, result.Subscription.ID)
	s.Equal(result.PaymentMethod.ID, *result.Subscription.DefaultPaymentMethodID)
}

func (s *ReconciliationServiceTestSuite) TestActivateSubscription() {
	sub := s.seedSubscription("subs_incomplete", types.SubscriptionStatusIncomplete, false, nil)
	account := s.seedLedgerAccount(sub.ID)
	session := s.seedSession(types.CheckoutSessionTypeActivateSubscription, func(cs *checkoutsession.CheckoutSession) {
		cs.TargetSubscriptionID = &sub.ID
	})

	result, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.False(result.Replayed)
	s.Equal(types.SubscriptionStatusActive, result.Subscription.SubscriptionStatus)
	s.Equal("seti_1", *result.Subscription.SetupIntentID)
	s.NotNil(result.BillingRun)
	s.Equal(activationIdempotencyKey(sub.ID, account.ID), result.BillingRun.IdempotencyKey)

	// A redelivered webhook replays the derived outcome without mutation.
	again, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.True(again.Replayed)
	s.Equal(sub.ID, again.Subscription.ID)
}

func (s *ReconciliationServiceTestSuite) TestProductCheckoutUpgradesFreePlan() {
	anchor := s.GetNow().Add(-15 * 24 * time.Hour)
	free := s.seedSubscription("subs_free", types.SubscriptionStatusActive, true, func(sub *subscription.Subscription) {
		sub.BillingAnchor = anchor
	})

	session := s.seedSession(types.CheckoutSessionTypeProduct, func(cs *checkoutsession.CheckoutSession) {
		cs.PriceID = &s.testData.paidPrice.ID
		cs.Quantity = 1
		cs.OutputName = "Pro Plan"
		cs.PreserveBillingCycleAnchor = true
	})

	result, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.NotNil(result.Subscription)
	s.Equal("Pro Plan", result.Subscription.Name)
	s.Equal("seti_1", *result.Subscription.SetupIntentID)
	s.True(result.Subscription.BillingAnchor.Equal(anchor))
	s.Equal(result.PaymentMethod.ID, *result.Subscription.DefaultPaymentMethodID)

	// The free plan is cancelled and forward-linked to its replacement.
	cancelled, err := s.GetStores().SubscriptionRepo.GetByID(s.GetContext(), free.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, cancelled.SubscriptionStatus)
	s.Equal(types.CancellationReasonUpgradedToPaid, cancelled.CancellationReason)
	s.Equal(result.Subscription.ID, *cancelled.ReplacedBySubscriptionID)

	again, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.True(again.Replayed)
	s.Equal(result.Subscription.ID, again.Subscription.ID)
}

func (s *ReconciliationServiceTestSuite) TestPurchaseCheckout() {
	p := &purchase.Purchase{
		ID:             "purch_test_123",
		PurchaseNumber: "PO-TEST1",
		CustomerID:     s.testData.customer.ID,
		PriceID:        s.testData.paidPrice.ID,
		Quantity:       1,
		PurchaseStatus: types.PurchaseStatusPending,
		Subtotal:       decimal.NewFromInt(50),
		Total:          decimal.NewFromInt(55),
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().PurchaseRepo.Create(s.GetContext(), p))

	session := s.seedSession(types.CheckoutSessionTypePurchase, func(cs *checkoutsession.CheckoutSession) {
		cs.PriceID = &s.testData.paidPrice.ID
		cs.PurchaseID = &p.ID
		cs.Quantity = 1
	})

	result, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.NoError(err)
	s.NotNil(result.Subscription)
	s.NotNil(result.Purchase)
	s.Equal(types.PurchaseStatusPaid, result.Purchase.PurchaseStatus)
	s.NotNil(result.Purchase.PaidAt)
}

func (s *ReconciliationServiceTestSuite) TestInvoiceSessionRejected() {
	session := s.seedSession(types.CheckoutSessionTypeInvoice, func(cs *checkoutsession.CheckoutSession) {
		cs.InvoiceID = lo.ToPtr("inv_test_123")
	})

	_, err := s.reconciliationService.ProcessSetupIntentSucceeded(s.GetContext(), s.newIntent("seti_1", session.ID))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ReconciliationServiceTestSuite) newIntent(id, sessionID string) *types.SetupIntent {
	return &types.SetupIntent{
		ID:              id,
		Status:          types.SetupIntentStatusSucceeded,
		CustomerID:      "cus_provider_123",
		PaymentMethodID: "pm_provider_1",
		Metadata: types.Metadata{
			"type":                types.IntentMetadataTypeCheckoutSession,
			"checkout_session_id": sessionID,
		},
	}
}

func (s *ReconciliationServiceTestSuite) seedSession(sessionType types.CheckoutSessionType, mutate func(*checkoutsession.CheckoutSession)) *checkoutsession.CheckoutSession {
	session := &checkoutsession.CheckoutSession{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHECKOUT_SESSION),
		SessionType:   sessionType,
		SessionStatus: types.CheckoutSessionStatusOpen,
		CustomerID:    s.testData.customer.ID,
		EnvironmentID: types.GetEnvironmentID(s.GetContext()),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(session)
	}
	s.NoError(s.GetStores().CheckoutSessionRepo.Create(s.GetContext(), session))
	return session
}

func (s *ReconciliationServiceTestSuite) seedSubscription(id string, status types.SubscriptionStatus, freePlan bool, mutate func(*subscription.Subscription)) *subscription.Subscription {
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
	if mutate != nil {
		mutate(sub)
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *ReconciliationServiceTestSuite) seedLedgerAccount(subscriptionID string) *ledger.Account {
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
