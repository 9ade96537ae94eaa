package service

import (
	"strings"
	"testing"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/organization"
	"github.com/meterline/meterline/internal/domain/price"
	"github.com/meterline/meterline/internal/domain/product"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/testutil"
	"github.com/meterline/meterline/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PurchaseServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	purchaseService PurchaseService
	testData        struct {
		organization *organization.Organization
		customer     *customer.Customer
		price        *price.Price
	}
}

func TestPurchaseService(t *testing.T) {
	suite.Run(t, new(PurchaseServiceTestSuite))
}

func (s *PurchaseServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.purchaseService = NewPurchaseService(testServiceParams(&s.BaseServiceTestSuite))

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

func (s *PurchaseServiceTestSuite) TestCreatePurchase() {
	resp, err := s.purchaseService.CreatePurchase(s.GetContext(), dto.CreatePurchaseRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.price.ID,
		Quantity:   2,
	})
	s.NoError(err)
	s.Equal(types.PurchaseStatusPending, resp.PurchaseStatus)
	s.True(resp.Subtotal.Equal(decimal.NewFromInt(100)))
	s.True(resp.FeeAmount.Equal(decimal.NewFromInt(10)))
	s.True(resp.Total.Equal(decimal.NewFromInt(110)))
	s.True(strings.HasPrefix(resp.PurchaseNumber, types.SHORT_ID_PREFIX_PURCHASE))
	s.Nil(resp.PaidAt)
}

func (s *PurchaseServiceTestSuite) TestCreatePurchaseWithDiscount() {
	resp, err := s.purchaseService.CreatePurchase(s.GetContext(), dto.CreatePurchaseRequest{
		CustomerID:     s.testData.customer.ID,
		PriceID:        s.testData.price.ID,
		Quantity:       2,
		DiscountCode:   lo.ToPtr("WELCOME20"),
		DiscountAmount: decimal.NewFromInt(20),
	})
	s.NoError(err)
	s.True(resp.Total.Equal(decimal.NewFromInt(90)))
	s.Equal("WELCOME20", *resp.DiscountCode)
}

func (s *PurchaseServiceTestSuite) TestCreatePurchaseDiscountFloorsAtZero() {
	resp, err := s.purchaseService.CreatePurchase(s.GetContext(), dto.CreatePurchaseRequest{
		CustomerID:     s.testData.customer.ID,
		PriceID:        s.testData.price.ID,
		Quantity:       1,
		DiscountAmount: decimal.NewFromInt(500),
	})
	s.NoError(err)
	s.True(resp.Total.IsZero())
}

func (s *PurchaseServiceTestSuite) TestCreatePurchaseValidation() {
	_, err := s.purchaseService.CreatePurchase(s.GetContext(), dto.CreatePurchaseRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.price.ID,
		Quantity:   0,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.purchaseService.CreatePurchase(s.GetContext(), dto.CreatePurchaseRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    "price_missing",
		Quantity:   1,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PurchaseServiceTestSuite) TestMarkPurchasePaid() {
	created, err := s.purchaseService.CreatePurchase(s.GetContext(), dto.CreatePurchaseRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.price.ID,
		Quantity:   1,
	})
	s.NoError(err)

	paid, err := s.purchaseService.MarkPurchasePaid(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(types.PurchaseStatusPaid, paid.PurchaseStatus)
	s.NotNil(paid.PaidAt)

	// Marking an already paid purchase again keeps the original timestamp.
	again, err := s.purchaseService.MarkPurchasePaid(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(paid.PaidAt, again.PaidAt)
}

func (s *PurchaseServiceTestSuite) TestGetPurchase() {
	created, err := s.purchaseService.CreatePurchase(s.GetContext(), dto.CreatePurchaseRequest{
		CustomerID: s.testData.customer.ID,
		PriceID:    s.testData.price.ID,
		Quantity:   1,
	})
	s.NoError(err)

	got, err := s.purchaseService.GetPurchase(s.GetContext(), created.ID)
	s.NoError(err)
	s.Equal(created.ID, got.ID)

	_, err = s.purchaseService.GetPurchase(s.GetContext(), "purch_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
