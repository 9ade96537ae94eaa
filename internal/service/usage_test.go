package service

import (
	"testing"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/testutil"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type UsageServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	usageService  UsageService
	ledgerService LedgerService
	testData      struct {
		account *ledger.Account
	}
}

func TestUsageService(t *testing.T) {
	suite.Run(t, new(UsageServiceTestSuite))
}

func (s *UsageServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.usageService = NewUsageService(params)
	s.ledgerService = NewLedgerService(params)

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

func (s *UsageServiceTestSuite) TestIngestUsageEvent() {
	resp, err := s.usageService.IngestUsageEvent(s.GetContext(), dto.IngestUsageEventRequest{
		SubscriptionID: s.testData.account.SubscriptionID,
		UsageMeterID:   s.testData.account.UsageMeterID,
		Amount:         decimal.NewFromInt(42),
		TransactionID:  "corr-1",
	})
	s.NoError(err)
	s.False(resp.Replayed)
	s.NotNil(resp.Event)
	s.NotNil(resp.LedgerTransaction)
	s.Equal(types.LedgerTransactionTypeUsageEventProcessed, resp.LedgerTransaction.TxType)
	s.Equal("usage:corr-1", resp.LedgerTransaction.IdempotencyKey)

	entries, err := s.GetStores().LedgerRepo.ListEntriesByTransaction(s.GetContext(), resp.LedgerTransaction.ID)
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.LedgerEntryTypeUsageCost, entries[0].EntryType)
	s.Equal(types.LedgerEntryStatusPosted, entries[0].EntryStatus)
	s.Equal(resp.Event.ID, *entries[0].UsageEventID)

	balance, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(balance.Balance.Equal(decimal.NewFromInt(-42)))
}

func (s *UsageServiceTestSuite) TestIngestUsageEventReplay() {
	req := dto.IngestUsageEventRequest{
		SubscriptionID: s.testData.account.SubscriptionID,
		UsageMeterID:   s.testData.account.UsageMeterID,
		Amount:         decimal.NewFromInt(10),
		TransactionID:  "corr-replay",
	}

	first, err := s.usageService.IngestUsageEvent(s.GetContext(), req)
	s.NoError(err)
	s.False(first.Replayed)

	second, err := s.usageService.IngestUsageEvent(s.GetContext(), req)
	s.NoError(err)
	s.True(second.Replayed)
	s.Equal(first.Event.ID, second.Event.ID)
	s.Equal(first.LedgerTransaction.ID, second.LedgerTransaction.ID)

	// The redelivery must not book the cost twice.
	balance, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(balance.Balance.Equal(decimal.NewFromInt(-10)))
}

func (s *UsageServiceTestSuite) TestIngestUsageEventUnknownAccount() {
	_, err := s.usageService.IngestUsageEvent(s.GetContext(), dto.IngestUsageEventRequest{
		SubscriptionID: "subs_missing",
		UsageMeterID:   "meter_api_calls",
		Amount:         decimal.NewFromInt(5),
		TransactionID:  "corr-missing",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *UsageServiceTestSuite) TestIngestUsageEventValidation() {
	_, err := s.usageService.IngestUsageEvent(s.GetContext(), dto.IngestUsageEventRequest{
		SubscriptionID: s.testData.account.SubscriptionID,
		UsageMeterID:   s.testData.account.UsageMeterID,
		Amount:         decimal.NewFromInt(5),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.usageService.IngestUsageEvent(s.GetContext(), dto.IngestUsageEventRequest{
		SubscriptionID: s.testData.account.SubscriptionID,
		UsageMeterID:   s.testData.account.UsageMeterID,
		Amount:         decimal.Zero,
		TransactionID:  "corr-zero",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *UsageServiceTestSuite) TestGetUsageEvent() {
	resp, err := s.usageService.IngestUsageEvent(s.GetContext(), dto.IngestUsageEventRequest{
		SubscriptionID: s.testData.account.SubscriptionID,
		UsageMeterID:   s.testData.account.UsageMeterID,
		Amount:         decimal.NewFromInt(7),
		TransactionID:  "corr-get",
	})
	s.NoError(err)

	got, err := s.usageService.GetUsageEvent(s.GetContext(), resp.Event.ID)
	s.NoError(err)
	s.Equal(resp.Event.ID, got.Event.ID)

	_, err = s.usageService.GetUsageEvent(s.GetContext(), "usage_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
