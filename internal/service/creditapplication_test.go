package service

import (
	"testing"
	"time"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/testutil"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CreditApplicationServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	applicationService CreditApplicationService
	creditService      CreditService
	usageService       UsageService
	ledgerService      LedgerService
	testData           struct {
		account *ledger.Account
	}
}

func TestCreditApplicationService(t *testing.T) {
	suite.Run(t, new(CreditApplicationServiceTestSuite))
}

func (s *CreditApplicationServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := testServiceParams(&s.BaseServiceTestSuite)
	s.applicationService = NewCreditApplicationService(params)
	s.creditService = NewCreditService(params)
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

func (s *CreditApplicationServiceTestSuite) TestRunCoversDebit() {
	s.ingestUsage("corr-1", 100)
	soon := s.GetNow().Add(24 * time.Hour)
	credSoon := s.issueGrant(60, &soon)
	credNever := s.issueGrant(60, nil)

	resp, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	s.Equal(types.LedgerTransactionTypeBillingRecalculated, resp.Transaction.TxType)
	s.Len(resp.Entries, 4)

	// Soonest-expiring grant is consumed first, the never-expiring one
	// covers the remainder. Each grant yields a consumed/applied pair.
	s.assertApplicationPair(resp.Entries[0], resp.Entries[1], credSoon, 60)
	s.assertApplicationPair(resp.Entries[2], resp.Entries[3], credNever, 40)
	for _, e := range resp.Entries {
		s.Equal(types.LedgerEntryStatusPending, e.EntryStatus)
	}

	// Application pairs are net zero: the balance in either mode is the
	// recognized grants minus the usage cost.
	available, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModeAvailable)
	s.NoError(err)
	s.True(available.Balance.Equal(decimal.NewFromInt(20)))

	posted, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(posted.Balance.Equal(decimal.NewFromInt(20)))
}

// A grant must never offset more usage than was explicitly applied against
// it: issuing 100 of credit against 300 of usage leaves 200 outstanding, not
// the 100 a double count of the recognition entry would report.
func (s *CreditApplicationServiceTestSuite) TestIssuedGrantOffsetsUsageOnce() {
	s.issueGrant(100, nil)
	s.ingestUsage("corr-1", 300)

	run, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	s.Len(run.Entries, 2)

	_, err = s.applicationService.FinalizeBillingRecalculation(s.GetContext(), run.Transaction.ID)
	s.NoError(err)

	available, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModeAvailable)
	s.NoError(err)
	s.True(available.Balance.Equal(decimal.NewFromInt(-200)))
}

// Partially consumed grants expire for their unconsumed remainder only, so
// the account settles at zero instead of going negative.
func (s *CreditApplicationServiceTestSuite) TestPartialConsumptionThenExpiry() {
	expiry := s.GetNow().Add(time.Hour)
	credID := s.issueGrant(100, &expiry)
	s.ingestUsage("corr-1", 50)

	run, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	_, err = s.applicationService.FinalizeBillingRecalculation(s.GetContext(), run.Transaction.ID)
	s.NoError(err)

	expired, err := s.creditService.ExpireCredits(s.GetContext(), s.GetNow().Add(2*time.Hour))
	s.NoError(err)
	s.Equal([]string{credID}, expired.ExpiredCreditIDs)
	s.True(expired.TotalExpired.Equal(decimal.NewFromInt(50)))

	posted, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(posted.Balance.IsZero())
}

func (s *CreditApplicationServiceTestSuite) TestRunSupersedesPriorRun() {
	s.ingestUsage("corr-1", 100)
	s.issueGrant(60, nil)
	s.issueGrant(60, nil)

	first, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	s.Len(first.Entries, 4)

	// More usage arrives, the period is recalculated under the same key.
	s.ingestUsage("corr-2", 20)

	second, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	s.Equal(first.Transaction.ID, second.Transaction.ID)
	s.Len(second.Entries, 4)
	s.True(s.sumByType(second.Entries, types.LedgerEntryTypeCreditAppliedToUsage).Equal(decimal.NewFromInt(120)))

	// Prior pendings are discarded, so only the superseding entries count.
	all, err := s.GetStores().LedgerRepo.ListEntriesByTransaction(s.GetContext(), second.Transaction.ID)
	s.NoError(err)
	discarded := 0
	for _, e := range all {
		if e.IsDiscarded() {
			discarded++
		}
	}
	s.Equal(4, discarded)
	s.Len(all, 8)

	available, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModeAvailable)
	s.NoError(err)
	s.True(available.Balance.IsZero())
}

func (s *CreditApplicationServiceTestSuite) TestRunInsufficientCredit() {
	s.ingestUsage("corr-1", 100)
	credID := s.issueGrant(40, nil)

	resp, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	s.Len(resp.Entries, 2)
	s.assertApplicationPair(resp.Entries[0], resp.Entries[1], credID, 40)

	// The uncovered remainder stays outstanding.
	available, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModeAvailable)
	s.NoError(err)
	s.True(available.Balance.Equal(decimal.NewFromInt(-60)))
}

func (s *CreditApplicationServiceTestSuite) TestRunNoOutstandingDebit() {
	s.issueGrant(50, nil)

	resp, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	s.Empty(resp.Entries)
}

func (s *CreditApplicationServiceTestSuite) TestRunSkipsExpiredGrants() {
	s.ingestUsage("corr-1", 50)
	past := s.GetNow().Add(-time.Hour)
	s.issueGrant(100, &past)

	resp, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	s.Empty(resp.Entries)
}

func (s *CreditApplicationServiceTestSuite) TestRunKeyOwnedByOtherOperation() {
	s.ingestUsage("corr-1", 10)

	_, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  usageIdempotencyKey("corr-1"),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CreditApplicationServiceTestSuite) TestRunValidation() {
	_, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: "la_missing",
		IdempotencyKey:  "period-x",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CreditApplicationServiceTestSuite) TestCustomComparator() {
	params := testServiceParams(&s.BaseServiceTestSuite)
	largestFirst := NewCreditApplicationServiceWithComparator(params, func(a, b *GrantCandidate) bool {
		return a.Remaining.GreaterThan(b.Remaining)
	})

	s.ingestUsage("corr-1", 50)
	s.issueGrant(20, nil)
	credLarge := s.issueGrant(80, nil)

	resp, err := largestFirst.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)
	s.Len(resp.Entries, 2)
	s.assertApplicationPair(resp.Entries[0], resp.Entries[1], credLarge, 50)
}

func (s *CreditApplicationServiceTestSuite) TestFinalize() {
	s.ingestUsage("corr-1", 100)
	s.issueGrant(120, nil)

	run, err := s.applicationService.RunBillingRecalculation(s.GetContext(), dto.BillingRecalculationRequest{
		LedgerAccountID: s.testData.account.ID,
		IdempotencyKey:  "period-2026-08",
	})
	s.NoError(err)

	final, err := s.applicationService.FinalizeBillingRecalculation(s.GetContext(), run.Transaction.ID)
	s.NoError(err)
	s.Len(final.Entries, 2)
	for _, e := range final.Entries {
		s.Equal(types.LedgerEntryStatusPosted, e.EntryStatus)
	}

	// Usage 100 is fully covered; the grant's unconsumed 20 remains.
	posted, err := s.ledgerService.GetBalance(s.GetContext(), s.testData.account.ID, types.BalanceModePosted)
	s.NoError(err)
	s.True(posted.Balance.Equal(decimal.NewFromInt(20)))

	// Finalizing again is a no-op.
	again, err := s.applicationService.FinalizeBillingRecalculation(s.GetContext(), run.Transaction.ID)
	s.NoError(err)
	s.Len(again.Entries, 2)
}

func (s *CreditApplicationServiceTestSuite) TestFinalizeWrongTransactionType() {
	resp := s.ingestUsage("corr-1", 10)

	_, err := s.applicationService.FinalizeBillingRecalculation(s.GetContext(), resp.LedgerTransaction.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CreditApplicationServiceTestSuite) ingestUsage(correlationID string, amount int64) *dto.UsageEventResponse {
	resp, err := s.usageService.IngestUsageEvent(s.GetContext(), dto.IngestUsageEventRequest{
		SubscriptionID: s.testData.account.SubscriptionID,
		UsageMeterID:   s.testData.account.UsageMeterID,
		Amount:         decimal.NewFromInt(amount),
		TransactionID:  correlationID,
	})
	s.NoError(err)
	return resp
}

// issueGrant issues a credit through the issue flow, recognition entry
// included, and returns the grant id.
func (s *CreditApplicationServiceTestSuite) issueGrant(amount int64, expiresAt *time.Time) string {
	resp, err := s.creditService.IssueCredit(s.GetContext(), dto.IssueCreditRequest{
		LedgerAccountID: s.testData.account.ID,
		CreditType:      types.CreditTypePromotional,
		Amount:          decimal.NewFromInt(amount),
		ExpiresAt:       expiresAt,
	})
	s.NoError(err)
	return resp.Credit.ID
}

// assertApplicationPair checks a consumed/applied pair drawn from one grant.
func (s *CreditApplicationServiceTestSuite) assertApplicationPair(consumed, applied *ledger.Entry, creditID string, amount int64) {
	s.Equal(types.LedgerEntryTypeCreditBalanceConsumed, consumed.EntryType)
	s.Equal(types.LedgerEntryTypeCreditAppliedToUsage, applied.EntryType)
	s.Equal(creditID, *consumed.UsageCreditID)
	s.Equal(creditID, *applied.UsageCreditID)
	s.True(consumed.Amount.Equal(decimal.NewFromInt(amount)))
	s.True(applied.Amount.Equal(decimal.NewFromInt(amount)))
}

func (s *CreditApplicationServiceTestSuite) sumByType(entries []*ledger.Entry, entryType types.LedgerEntryType) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.EntryType == entryType {
			total = total.Add(e.Amount)
		}
	}
	return total
}
