package service

import (
	"context"
	"sort"
	"time"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/credit"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
	"github.com/shopspring/decimal"
)

// GrantCandidate pairs an eligible credit grant with its unconsumed balance
// at selection time.
type GrantCandidate struct {
	Credit    *credit.Credit
	Remaining decimal.Decimal
}

// GrantComparator orders eligible grants for application. Returns true when a
// should be consumed before b.
type GrantComparator func(a, b *GrantCandidate) bool

// DefaultGrantComparator consumes soonest-expiring grants first, never-expiring
// grants last, with creation time and then id as tie breakers so ordering is
// total and stable across runs.
func DefaultGrantComparator(a, b *GrantCandidate) bool {
	ae, be := a.Credit.ExpiresAt, b.Credit.ExpiresAt
	switch {
	case ae != nil && be == nil:
		return true
	case ae == nil && be != nil:
		return false
	case ae != nil && be != nil && !ae.Equal(*be):
		return ae.Before(*be)
	}
	if !a.Credit.CreatedAt.Equal(b.Credit.CreatedAt) {
		return a.Credit.CreatedAt.Before(b.Credit.CreatedAt)
	}
	return a.Credit.ID < b.Credit.ID
}

// CreditApplicationService runs billing recalculations: it covers an
// account's outstanding usage debit from eligible credit grants, writing
// pending credit_balance_consumed / credit_applied_to_usage pairs that post
// when the run finalizes.
type CreditApplicationService interface {
	// RunBillingRecalculation computes the outstanding debit on the account
	// and writes pending application entries against eligible grants. Calling
	// it again with the same idempotency key discards the previous run's
	// pending entries and supersedes them.
	RunBillingRecalculation(ctx context.Context, req dto.BillingRecalculationRequest) (*dto.LedgerTransactionResponse, error)

	// FinalizeBillingRecalculation posts all surviving pending entries of the
	// run atomically.
	FinalizeBillingRecalculation(ctx context.Context, transactionID string) (*dto.LedgerTransactionResponse, error)
}

type creditApplicationService struct {
	ServiceParams
	comparator GrantComparator
}

func NewCreditApplicationService(params ServiceParams) CreditApplicationService {
	return NewCreditApplicationServiceWithComparator(params, DefaultGrantComparator)
}

// NewCreditApplicationServiceWithComparator overrides the grant consumption
// order.
func NewCreditApplicationServiceWithComparator(params ServiceParams, cmp GrantComparator) CreditApplicationService {
	return &creditApplicationService{
		ServiceParams: params,
		comparator:    cmp,
	}
}

func (s *creditApplicationService) RunBillingRecalculation(ctx context.Context, req dto.BillingRecalculationRequest) (*dto.LedgerTransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.LedgerRepo.GetAccountByID(ctx, req.LedgerAccountID)
	if err != nil {
		return nil, err
	}

	var (
		ledgerTx *ledger.Transaction
		created  []*ledger.Entry
	)

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()

		ledgerTx, err = s.findOrCreateRun(ctx, account, req.IdempotencyKey)
		if err != nil {
			return err
		}

		if err := s.discardPriorApplications(ctx, ledgerTx.ID, now); err != nil {
			return err
		}

		need, err := s.outstandingDebit(ctx, account.ID)
		if err != nil {
			return err
		}
		if !need.GreaterThan(decimal.Zero) {
			return nil
		}

		candidates, err := s.eligibleGrants(ctx, account.ID, now)
		if err != nil {
			return err
		}

		created, err = s.applyGrants(ctx, ledgerTx, account, candidates, need)
		if err != nil {
			return err
		}
		if len(created) > 0 {
			return s.LedgerRepo.CreateEntries(ctx, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("billing recalculation run",
		"ledger_transaction_id", ledgerTx.ID,
		"ledger_account_id", account.ID,
		"applications", len(created),
	)

	return &dto.LedgerTransactionResponse{
		Transaction: ledgerTx,
		Entries:     created,
	}, nil
}

func (s *creditApplicationService) FinalizeBillingRecalculation(ctx context.Context, transactionID string) (*dto.LedgerTransactionResponse, error) {
	ledgerTx, err := s.LedgerRepo.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if ledgerTx.TxType != types.LedgerTransactionTypeBillingRecalculated {
		return nil, ierr.NewError("transaction is not a billing recalculation").
			WithHint("Only billing recalculation runs can be finalized").
			WithReportableDetails(map[string]any{
				"ledger_transaction_id": transactionID,
				"transaction_type":      ledgerTx.TxType,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	var entries []*ledger.Entry
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		all, err := s.LedgerRepo.ListEntriesByTransaction(ctx, ledgerTx.ID)
		if err != nil {
			return err
		}

		pendingIDs := make([]string, 0, len(all))
		for _, e := range all {
			if e.DiscardedAt != nil {
				continue
			}
			entries = append(entries, e)
			if e.EntryStatus == types.LedgerEntryStatusPending {
				pendingIDs = append(pendingIDs, e.ID)
			}
		}
		if len(pendingIDs) == 0 {
			return nil
		}
		if err := s.LedgerRepo.PostEntries(ctx, pendingIDs); err != nil {
			return err
		}
		for _, e := range entries {
			if e.EntryStatus == types.LedgerEntryStatusPending {
				e.EntryStatus = types.LedgerEntryStatusPosted
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventLedgerTransactionCreated,
		webhookDto.InternalLedgerTransactionEvent{TransactionID: ledgerTx.ID},
	)

	return &dto.LedgerTransactionResponse{
		Transaction: ledgerTx,
		Entries:     entries,
	}, nil
}

func (s *creditApplicationService) findOrCreateRun(ctx context.Context, account *ledger.Account, idempotencyKey string) (*ledger.Transaction, error) {
	existing, err := s.LedgerRepo.GetTransactionByIdempotencyKey(ctx, idempotencyKey)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		if existing.TxType != types.LedgerTransactionTypeBillingRecalculated {
			return nil, ierr.NewError("idempotency key belongs to another operation").
				WithHint("Billing recalculation keys cannot be shared with other transaction types").
				WithReportableDetails(map[string]any{
					"idempotency_key":  idempotencyKey,
					"transaction_type": existing.TxType,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		return existing, nil
	}

	ledgerTx := &ledger.Transaction{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_TRANSACTION),
		TxType:         types.LedgerTransactionTypeBillingRecalculated,
		SubscriptionID: account.SubscriptionID,
		IdempotencyKey: idempotencyKey,
		Description:    "billing recalculated",
		Livemode:       types.GetLivemode(ctx),
		EnvironmentID:  types.GetEnvironmentID(ctx),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if err := s.LedgerRepo.CreateTransaction(ctx, ledgerTx); err != nil {
		return nil, err
	}
	return ledgerTx, nil
}

// discardPriorApplications supersedes a previous run with the same key:
// pending entries from the earlier computation are discarded before new ones
// are written. Posted entries are left untouched.
func (s *creditApplicationService) discardPriorApplications(ctx context.Context, transactionID string, at time.Time) error {
	prior, err := s.LedgerRepo.ListEntriesByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(prior))
	for _, e := range prior {
		if e.EntryStatus == types.LedgerEntryStatusPending && e.DiscardedAt == nil {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return s.LedgerRepo.DiscardEntries(ctx, ids, at)
}

// outstandingDebit is the usage cost not yet covered by an application:
// usage_cost total minus credit_applied_to_usage total over entries that count
// towards the available balance. Recognized grants do not reduce it; only an
// explicit application pair does, so a grant can never offset more usage than
// was applied against it.
func (s *creditApplicationService) outstandingDebit(ctx context.Context, accountID string) (decimal.Decimal, error) {
	entries, err := s.LedgerRepo.ListEntriesByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	outstanding := decimal.Zero
	for _, e := range entries {
		if !e.CountsTowards(types.BalanceModeAvailable) {
			continue
		}
		switch e.EntryType {
		case types.LedgerEntryTypeUsageCost:
			outstanding = outstanding.Add(e.Amount)
		case types.LedgerEntryTypeCreditAppliedToUsage:
			outstanding = outstanding.Sub(e.Amount)
		}
	}
	return outstanding, nil
}

func (s *creditApplicationService) eligibleGrants(ctx context.Context, accountID string, asOf time.Time) ([]*GrantCandidate, error) {
	grants, err := s.CreditRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	applied, err := s.LedgerRepo.SumAppliedByCredit(ctx, accountID)
	if err != nil {
		return nil, err
	}

	candidates := make([]*GrantCandidate, 0, len(grants))
	for _, g := range grants {
		if g.IsExpired(asOf) {
			continue
		}
		remaining := g.IssuedAmount.Sub(applied[g.ID])
		if remaining.GreaterThan(decimal.Zero) {
			candidates = append(candidates, &GrantCandidate{Credit: g, Remaining: remaining})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return s.comparator(candidates[i], candidates[j])
	})
	return candidates, nil
}

// applyGrants walks candidates in comparator order and builds one pending
// application pair per consumed grant until the outstanding debit is covered
// or credit runs out: a credit_balance_consumed debit draws down the grant's
// recognized balance and a credit_applied_to_usage credit of the same amount
// offsets the usage cost, so the pair is net zero against the account balance.
// Insufficient credit is not an error; the remainder stays outstanding.
func (s *creditApplicationService) applyGrants(ctx context.Context, ledgerTx *ledger.Transaction, account *ledger.Account, candidates []*GrantCandidate, need decimal.Decimal) ([]*ledger.Entry, error) {
	entries := make([]*ledger.Entry, 0, 2*len(candidates))
	for _, c := range candidates {
		if !need.GreaterThan(decimal.Zero) {
			break
		}
		amount := decimal.Min(c.Remaining, need)
		grantID := c.Credit.ID
		consumed := &ledger.Entry{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
			TransactionID: ledgerTx.ID,
			AccountID:     account.ID,
			EntryType:     types.LedgerEntryTypeCreditBalanceConsumed,
			Amount:        amount,
			EntryStatus:   types.LedgerEntryStatusPending,
			UsageCreditID: &grantID,
			UsageMeterID:  account.UsageMeterID,
			Description:   "credit balance consumed",
			EnvironmentID: types.GetEnvironmentID(ctx),
			BaseModel:     types.GetDefaultBaseModel(ctx),
		}
		applied := &ledger.Entry{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
			TransactionID: ledgerTx.ID,
			AccountID:     account.ID,
			EntryType:     types.LedgerEntryTypeCreditAppliedToUsage,
			Amount:        amount,
			EntryStatus:   types.LedgerEntryStatusPending,
			UsageCreditID: &grantID,
			UsageMeterID:  account.UsageMeterID,
			Description:   "credit applied to usage",
			EnvironmentID: types.GetEnvironmentID(ctx),
			BaseModel:     types.GetDefaultBaseModel(ctx),
		}
		for _, entry := range []*ledger.Entry{consumed, applied} {
			if err := entry.Validate(); err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		need = need.Sub(amount)
	}
	return entries, nil
}
