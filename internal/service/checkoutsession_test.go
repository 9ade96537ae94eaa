package service

import (
	"testing"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/price"
	"github.com/meterline/meterline/internal/domain/product"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/testutil"
	"github.com/meterline/meterline/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CheckoutSessionServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	sessionService CheckoutSessionService
	testData       struct {
		customer *customer.Customer
		price    *price.Price
	}
}

func TestCheckoutSessionService(t *testing.T) {
	suite.Run(t, new(CheckoutSessionServiceTestSuite))
}

func (s *CheckoutSessionServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.sessionService = NewCheckoutSessionService(testServiceParams(&s.BaseServiceTestSuite))

	ctx := s.GetContext()
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

	s.testData.price = &price.Price{
		ID:        "price_test_123",
		ProductID: prod.ID,
		PriceType: types.PriceTypeFixed,
		Amount:    decimal.NewFromInt(50),
		Currency:  "usd",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PriceRepo.Create(ctx, s.testData.price))
}

func (s *CheckoutSessionServiceTestSuite) TestCreateCheckoutSession() {
	resp, err := s.sessionService.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{
		SessionType: types.CheckoutSessionTypeProduct,
		CustomerID:  s.testData.customer.ID,
		PriceID:     &s.testData.price.ID,
		Quantity:    1,
		OutputName:  "Pro Plan",
	})
	s.NoError(err)
	s.Equal(types.CheckoutSessionStatusOpen, resp.SessionStatus)
	s.Equal("Pro Plan", resp.OutputName)
}

func (s *CheckoutSessionServiceTestSuite) TestCreateCheckoutSessionMissingPayload() {
	_, err := s.sessionService.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{
		SessionType: types.CheckoutSessionTypeProduct,
		CustomerID:  s.testData.customer.ID,
		Quantity:    1,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CheckoutSessionServiceTestSuite) TestCreateCheckoutSessionDanglingReferences() {
	_, err := s.sessionService.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{
		SessionType: types.CheckoutSessionTypeProduct,
		CustomerID:  s.testData.customer.ID,
		PriceID:     lo.ToPtr("price_missing"),
		Quantity:    1,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	_, err = s.sessionService.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{
		SessionType:          types.CheckoutSessionTypeActivateSubscription,
		CustomerID:           s.testData.customer.ID,
		TargetSubscriptionID: lo.ToPtr("subs_missing"),
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	_, err = s.sessionService.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{
		SessionType: types.CheckoutSessionTypeProduct,
		CustomerID:  "cust_missing",
		PriceID:     &s.testData.price.ID,
		Quantity:    1,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CheckoutSessionServiceTestSuite) TestUpdateStatusFromIntent() {
	created, err := s.sessionService.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{
		SessionType: types.CheckoutSessionTypeAddPaymentMethod,
		CustomerID:  s.testData.customer.ID,
	})
	s.NoError(err)

	pending, err := s.sessionService.UpdateStatusFromIntent(s.GetContext(), created.ID, types.SetupIntentStatusProcessing)
	s.NoError(err)
	s.Equal(types.CheckoutSessionStatusPending, pending.SessionStatus)

	succeeded, err := s.sessionService.UpdateStatusFromIntent(s.GetContext(), created.ID, types.SetupIntentStatusSucceeded)
	s.NoError(err)
	s.Equal(types.CheckoutSessionStatusSucceeded, succeeded.SessionStatus)

	// Terminal sessions are immutable.
	_, err = s.sessionService.UpdateStatusFromIntent(s.GetContext(), created.ID, types.SetupIntentStatusCanceled)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CheckoutSessionServiceTestSuite) TestGetCheckoutSession() {
	created, err := s.sessionService.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{
		SessionType: types.CheckoutSessionTypeAddPaymentMethod,
		CustomerID:  s.testData.customer.ID,
	})
	s.NoError(err)

	got, err := s.sessionService.GetCheckoutSession(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, got.ID)

	_, err = s.sessionService.GetCheckoutSession(s.GetContext(), "cs_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
