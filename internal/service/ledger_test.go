package service

import (
	"fmt"
	"testing"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/testutil"
	"github.com/meterline/meterline/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	ledgerService LedgerService
	testData      struct {
		account *ledger.Account
	}
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.ledgerService = NewLedgerService(testServiceParams(&s.BaseServiceTestSuite))
	s.setupTestData()
}

func (s *LedgerServiceTestSuite) setupTestData() {
	s.testData.account = &ledger.Account{
		ID:             "la_test_123",
		SubscriptionID: "subs_test_123",
		UsageMeterID:   "meter_api_calls",
		CustomerID:     "cust_test_123",
		Currency:       "usd",
		EnvironmentID:  types.GetEnvironmentID(s.GetContext()),
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().LedgerRepo.CreateAccount(s.GetContext(), s.testData.account))
}

func (s *LedgerServiceTestSuite) TestCreateAccount() {
	resp, err := s.ledgerService.CreateAccount(s.GetContext(), dto.CreateLedgerAccountRequest{
		SubscriptionID: "subs_test_456",
		UsageMeterID:   "meter_api_calls",
		CustomerID:     "cust_test_123",
		Currency:       "usd",
	})
	s.NoError(err)
	s.NotNil(resp)
	s.Equal("subs_test_456", resp.SubscriptionID)
	s.Equal("meter_api_calls", resp.UsageMeterID)
}

func (s *LedgerServiceTestSuite) TestCreateAccountIdempotent() {
	// A second request for the same (subscription, meter) pair returns the
	// existing account instead of creating a duplicate.
	resp, err := s.ledgerService.CreateAccount(s.GetContext(), dto.CreateLedgerAccountRequest{
		SubscriptionID: s.testData.account.SubscriptionID,
		UsageMeterID:   s.testData.account.UsageMeterID,
		CustomerID:     s.testData.account.CustomerID,
		Currency:       "usd",
	})
	s.NoError(err)
	s.Equal(s.testData.account.ID, resp.ID)
}

func (s *LedgerServiceTestSuite) TestGetAccount() {
	resp, err := s.ledgerService.GetAccount(s.GetContext(), s.testData.account.ID)
	s.NoError(err)
	s.Equal(s.testData.account.ID, resp.ID)

	// Second read is served from cache and must match.
	cached, err := s.ledgerService.GetAccount(s.GetContext(), s.testData.account.ID)
	s.NoError(err)
	s.Equal(resp.ID, cached.ID)
}

func (s *LedgerServiceTestSuite) TestGetAccountNotFound() {
	_, err := s.ledgerService.GetAccount(s.GetContext(), "la_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *LedgerServiceTestSuite) TestCreateTransaction() {
	resp, err := s.ledgerService.CreateTransaction(s.GetContext(), dto.CreateLedgerTransactionRequest{
		TxType:         types.LedgerTransactionTypeAdminAdjustment,
		SubscriptionID: s.testData.account.SubscriptionID,
		IdempotencyKey: "adjustment-1",
		Entries: []dto.CreateLedgerEntryRequest{
			{
				AccountID:                  s.testData.account.ID,
				EntryType:                  types.LedgerEntryTypeBillingAdjustment,
				Amount:                     decimal.NewFromInt(25),
				BillingPeriodCalculationID: lo.ToPtr("bpc_test_1"),
				UsageMeterID:               s.testData.account.UsageMeterID,
			},
		},
	})
	s.NoError(err)
	s.False(resp.Replayed)
	s.Len(resp.Entries, 1)
	s.Equal(types.LedgerEntryStatusPosted, resp.Entries[0].EntryStatus)

	balance, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(balance.Balance.Equal(decimal.NewFromInt(25)))
}

func (s *LedgerServiceTestSuite) TestCreateTransactionReplay() {
	req := dto.CreateLedgerTransactionRequest{
		TxType:         types.LedgerTransactionTypeAdminAdjustment,
		SubscriptionID: s.testData.account.SubscriptionID,
		IdempotencyKey: "adjustment-replay",
		Entries: []dto.CreateLedgerEntryRequest{
			{
				AccountID:                  s.testData.account.ID,
				EntryType:                  types.LedgerEntryTypeBillingAdjustment,
				Amount:                     decimal.NewFromInt(10),
				BillingPeriodCalculationID: lo.ToPtr("bpc_test_2"),
				UsageMeterID:               s.testData.account.UsageMeterID,
			},
		},
	}

	first, err := s.ledgerService.CreateTransaction(s.GetContext(), req)
	s.NoError(err)
	s.False(first.Replayed)

	second, err := s.ledgerService.CreateTransaction(s.GetContext(), req)
	s.NoError(err)
	s.True(second.Replayed)
	s.Equal(first.Transaction.ID, second.Transaction.ID)
	s.Len(second.Entries, 1)

	// The replay must not double the balance.
	balance, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(balance.Balance.Equal(decimal.NewFromInt(10)))
}

func (s *LedgerServiceTestSuite) TestCreateTransactionInvalidType() {
	_, err := s.ledgerService.CreateTransaction(s.GetContext(), dto.CreateLedgerTransactionRequest{
		TxType:         "bogus",
		SubscriptionID: s.testData.account.SubscriptionID,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LedgerServiceTestSuite) TestGetBalanceModes() {
	// grant 100 posted, usage 100 posted, usage 100 pending
	s.createEntries("tx-grant", types.LedgerTransactionTypeCreditGrantRecognized,
		entrySpec{types.LedgerEntryTypeCreditGrantRecognized, 100, types.LedgerEntryStatusPosted})
	s.createEntries("tx-usage-posted", types.LedgerTransactionTypeUsageEventProcessed,
		entrySpec{types.LedgerEntryTypeUsageCost, 100, types.LedgerEntryStatusPosted})
	s.createEntries("tx-usage-pending", types.LedgerTransactionTypeUsageEventProcessed,
		entrySpec{types.LedgerEntryTypeUsageCost, 100, types.LedgerEntryStatusPending})

	posted, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(posted.Balance.IsZero(), "posted balance should be 0, got %s", posted.Balance)

	available, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModeAvailable)
	s.NoError(err)
	s.True(available.Balance.Equal(decimal.NewFromInt(-100)), "available balance should be -100, got %s", available.Balance)
}

func (s *LedgerServiceTestSuite) TestGetBalanceEmptyAccount() {
	balance, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModeAvailable)
	s.NoError(err)
	s.True(balance.Balance.IsZero())
}

func (s *LedgerServiceTestSuite) TestGetBalanceInvalidMode() {
	_, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, "bogus")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LedgerServiceTestSuite) TestGetBalanceUnknownAccount() {
	_, err := s.ledgerService.GetBalance(s.GetContext(), "la_missing", types.BalanceModePosted)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

type entrySpec struct {
	entryType types.LedgerEntryType
	amount    int64
	status    types.LedgerEntryStatus
}

func (s *LedgerServiceTestSuite) createEntries(key string, txType types.LedgerTransactionType, specs ...entrySpec) {
	entries := make([]dto.CreateLedgerEntryRequest, 0, len(specs))
	for i, spec := range specs {
		entry := dto.CreateLedgerEntryRequest{
			AccountID:    s.testData.account.ID,
			EntryType:    spec.entryType,
			Amount:       decimal.NewFromInt(spec.amount),
			EntryStatus:  spec.status,
			UsageMeterID: s.testData.account.UsageMeterID,
		}
		ref := lo.ToPtr(fmt.Sprintf("%s-src-%d", key, i))
		switch spec.entryType.SourceType() {
		case types.LedgerEntrySourceUsageEvent:
			entry.UsageEventID = ref
		case types.LedgerEntrySourceUsageCredit:
			entry.UsageCreditID = ref
		case types.LedgerEntrySourceBillingPeriodCalculation:
			entry.BillingPeriodCalculationID = ref
		}
		entries = append(entries, entry)
	}
	_, err := s.ledgerService.CreateTransaction(s.GetContext(), dto.CreateLedgerTransactionRequest{
		TxType:         txType,
		SubscriptionID: s.testData.account.SubscriptionID,
		IdempotencyKey: key,
		Entries:        entries,
	})
	s.NoError(err)
}
