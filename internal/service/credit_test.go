package service

import (
	"testing"
	"time"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/testutil"
	"github.com/meterline/meterline/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CreditServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	creditService CreditService
	ledgerService LedgerService
	testData      struct {
		account *ledger.Account
	}
}

func TestCreditService(t *testing.T) {
	suite.Run(t, new(CreditServiceTestSuite))
}

func (s *CreditServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.creditService = NewCreditService(params)
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

func (s *CreditServiceTestSuite) TestIssueCredit() {
	resp, err := s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: s.testData.account.ID,
		CreditType:      types.CreditTypePromotional,
		Amount:          decimal.NewFromInt(100),
	})
	s.NoError(err)
	s.NotNil(resp.Credit)
	s.NotNil(resp.LedgerTransaction)
	s.Equal(s.testData.account.ID, resp.Credit.LedgerAccountID)
	s.Equal(s.testData.account.SubscriptionID, resp.Credit.SubscriptionID)
	s.Equal("credit:"+resp.Credit.ID, resp.LedgerTransaction.IdempotencyKey)

	entries, err := s.GetStores().LedgerRepo.ListEntriesByTransaction(s.GetContext(), resp.LedgerTransaction.ID)
	s.NoError(err)
	s.Len(entries, 1)
	s.Equal(types.LedgerEntryTypeCreditGrantRecognized, entries[0].EntryType)
	s.Equal(resp.Credit.ID, *entries[0].UsageCreditID)

	balance, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(balance.Balance.Equal(decimal.NewFromInt(100)))
}

func (s *CreditServiceTestSuite) TestIssueCreditValidation() {
	_, err := s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: s.testData.account.ID,
		CreditType:      types.CreditTypePromotional,
		Amount:          decimal.NewFromInt(-5),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: s.testData.account.ID,
		CreditType:      "bogus",
		Amount:          decimal.NewFromInt(5),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CreditServiceTestSuite) TestIssueCreditUnknownAccount() {
	_, err := s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: "la_missing",
		CreditType:      types.CreditTypePayment,
		Amount:          decimal.NewFromInt(10),
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CreditServiceTestSuite) TestRemainingAmount() {
	resp, err := s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: s.testData.account.ID,
		CreditType:      types.CreditTypePromotional,
		Amount:          decimal.NewFromInt(100),
	})
	s.NoError(err)

	remaining, err := s.creditService.RemainingAmount(s.GetContext(), resp.Credit.ID)
	s.NoError(err)
	s.True(remaining.Equal(decimal.NewFromInt(100)))

	s.applyAgainstGrant(resp.Credit.ID, decimal.NewFromInt(30), "apply-1")

	remaining, err = s.creditService.RemainingAmount(s.GetContext(), resp.Credit.ID)
	s.NoError(err)
	s.True(remaining.Equal(decimal.NewFromInt(70)))
}

func (s *CreditServiceTestSuite) TestExpireCredits() {
	past := s.GetNow().Add(-time.Hour)
	resp, err := s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: s.testData.account.ID,
		CreditType:      types.CreditTypePromotional,
		Amount:          decimal.NewFromInt(100),
		ExpiresAt:       &past,
	})
	s.NoError(err)

	s.applyAgainstGrant(resp.Credit.ID, decimal.NewFromInt(30), "apply-exp")

	expired, err := s.creditService.ExpireCredits(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Equal([]string{resp.Credit.ID}, expired.ExpiredCreditIDs)
	s.True(expired.TotalExpired.Equal(decimal.NewFromInt(70)))

	// The offsetting debit zeroes the remaining balance of the grant.
	remaining, err := s.creditService.RemainingAmount(s.GetContext(), resp.Credit.ID)
	s.NoError(err)
	s.True(remaining.IsZero())

	grant, err := s.GetStores().CreditRepo.GetByID(s.GetContext(), resp.Credit.ID)
	s.NoError(err)
	s.Equal(types.StatusArchived, grant.Status)

	expiryTx, err := s.GetStores().LedgerRepo.GetTransactionByIdempotencyKey(s.GetContext(), "credit_expiry:"+resp.Credit.ID)
	s.NoError(err)
	s.Equal(types.LedgerTransactionTypeCreditGrantExpired, expiryTx.TxType)
}

func (s *CreditServiceTestSuite) TestExpireCreditsIdempotent() {
	past := s.GetNow().Add(-time.Hour)
	resp, err := s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: s.testData.account.ID,
		CreditType:      types.CreditTypePromotional,
		Amount:          decimal.NewFromInt(50),
		ExpiresAt:       &past,
	})
	s.NoError(err)

	first, err := s.creditService.ExpireCredits(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Len(first.ExpiredCreditIDs, 1)

	// Archived grants drop out of the expiring set; a second run is a no-op.
	second, err := s.creditService.ExpireCredits(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Empty(second.ExpiredCreditIDs)
	s.True(second.TotalExpired.IsZero())

	remaining, err := s.creditService.RemainingAmount(s.GetContext(), resp.Credit.ID)
	s.NoError(err)
	s.True(remaining.IsZero())
}

func (s *CreditServiceTestSuite) TestExpireCreditsSkipsUnexpired() {
	future := s.GetNow().Add(24 * time.Hour)
	_, err := s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: s.testData.account.ID,
		CreditType:      types.CreditTypePromotional,
		Amount:          decimal.NewFromInt(50),
		ExpiresAt:       &future,
	})
	s.NoError(err)

	resp, err := s.creditService.ExpireCredits(s.GetContext(), s.GetNow())
	s.NoError(err)
	s.Empty(resp.ExpiredCreditIDs)
}

// applyAgainstGrant books a posted application pair consuming part of a
// grant, the way a finalized billing recalculation would.
func (s *CreditServiceTestSuite) applyAgainstGrant(creditID string, amount decimal.Decimal, key string) {
	ledgerTx := &ledger.Transaction{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_TRANSACTION),
		TxType:         types.LedgerTransactionTypeBillingRecalculated,
		SubscriptionID: s.testData.account.SubscriptionID,
		IdempotencyKey: key,
		EnvironmentID:  types.GetEnvironmentID(s.GetContext()),
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().LedgerRepo.CreateTransaction(s.GetContext(), ledgerTx))

	entries := make([]*ledger.Entry, 0, 2)
	for _, entryType := range []types.LedgerEntryType{
		types.LedgerEntryTypeCreditBalanceConsumed,
		types.LedgerEntryTypeCreditAppliedToUsage,
	} {
		entries = append(entries, &ledger.Entry{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
			TransactionID: ledgerTx.ID,
			AccountID:     s.testData.account.ID,
			EntryType:     entryType,
			Amount:        amount,
			EntryStatus:   types.LedgerEntryStatusPosted,
			UsageCreditID: lo.ToPtr(creditID),
			UsageMeterID:  s.testData.account.UsageMeterID,
			EnvironmentID: types.GetEnvironmentID(s.GetContext()),
			BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
		})
	}
	s.NoError(s.GetStores().LedgerRepo.CreateEntries(s.GetContext(), entries))
}
