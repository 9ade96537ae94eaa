package repository

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/meterline/meterline/internal/domain/ledger"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	"github.com/shopspring/decimal"
)

type ledgerRepository struct {
	baseRepository
}

const insertLedgerAccountQuery = `
INSERT INTO ledger_accounts (
	id, subscription_id, usage_meter_id, customer_id, currency, livemode,
	environment_id, metadata, tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :subscription_id, :usage_meter_id, :customer_id, :currency, :livemode,
	:environment_id, :metadata, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *ledgerRepository) CreateAccount(ctx context.Context, account *ledger.Account) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertLedgerAccountQuery, account)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A ledger account already exists for this subscription and meter").
				WithReportableDetails(map[string]any{
					"subscription_id": account.SubscriptionID,
					"usage_meter_id":  account.UsageMeterID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create ledger account").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ledgerRepository) GetAccountByID(ctx context.Context, id string) (*ledger.Account, error) {
	var account ledger.Account
	query := `SELECT * FROM ledger_accounts WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &account, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Ledger account with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get ledger account").
			Mark(ierr.ErrDatabase)
	}
	return &account, nil
}

func (r *ledgerRepository) GetAccountBySubscriptionAndMeter(ctx context.Context, subscriptionID, usageMeterID string) (*ledger.Account, error) {
	var account ledger.Account
	query := `SELECT * FROM ledger_accounts
		WHERE subscription_id = $1 AND usage_meter_id = $2 AND tenant_id = $3 AND status != $4`
	err := r.db.Querier(ctx).GetContext(ctx, &account, query, subscriptionID, usageMeterID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No ledger account exists for this subscription and meter").
				WithReportableDetails(map[string]any{
					"subscription_id": subscriptionID,
					"usage_meter_id":  usageMeterID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get ledger account").
			Mark(ierr.ErrDatabase)
	}
	return &account, nil
}

func (r *ledgerRepository) ListAccountsBySubscription(ctx context.Context, subscriptionID string) ([]*ledger.Account, error) {
	var accounts []*ledger.Account
	query := `SELECT * FROM ledger_accounts
		WHERE subscription_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &accounts, query, subscriptionID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list ledger accounts").
			Mark(ierr.ErrDatabase)
	}
	return accounts, nil
}

const insertLedgerTransactionQuery = `
INSERT INTO ledger_transactions (
	id, transaction_type, subscription_id, idempotency_key, description, livemode,
	metadata, environment_id, tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :transaction_type, :subscription_id, :idempotency_key, :description, :livemode,
	:metadata, :environment_id, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertLedgerTransactionQuery, tx)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A ledger transaction with this idempotency key already exists").
				WithReportableDetails(map[string]any{
					"idempotency_key": tx.IdempotencyKey,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create ledger transaction").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ledgerRepository) GetTransactionByID(ctx context.Context, id string) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	query := `SELECT * FROM ledger_transactions WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &tx, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Ledger transaction with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get ledger transaction").
			Mark(ierr.ErrDatabase)
	}
	return &tx, nil
}

func (r *ledgerRepository) GetTransactionByIdempotencyKey(ctx context.Context, key string) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	query := `SELECT * FROM ledger_transactions WHERE idempotency_key = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &tx, query, key, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No ledger transaction exists for this idempotency key").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get ledger transaction").
			Mark(ierr.ErrDatabase)
	}
	return &tx, nil
}

const insertLedgerEntryQuery = `
INSERT INTO ledger_entries (
	id, ledger_transaction_id, ledger_account_id, entry_type, amount, entry_status,
	discarded_at, usage_event_id, usage_credit_id, billing_period_calculation_id,
	usage_meter_id, description, metadata, environment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :ledger_transaction_id, :ledger_account_id, :entry_type, :amount, :entry_status,
	:discarded_at, :usage_event_id, :usage_credit_id, :billing_period_calculation_id,
	:usage_meter_id, :description, :metadata, :environment_id,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *ledgerRepository) CreateEntries(ctx context.Context, entries []*ledger.Entry) error {
	for _, entry := range entries {
		_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertLedgerEntryQuery, entry)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ierr.WithError(err).
					WithHint("The ledger account or transaction referenced by the entry does not exist").
					WithReportableDetails(map[string]any{
						"ledger_entry_id":       entry.ID,
						"ledger_account_id":     entry.AccountID,
						"ledger_transaction_id": entry.TransactionID,
					}).
					Mark(ierr.ErrNotFound)
			}
			return ierr.WithError(err).
				WithHint("Failed to create ledger entry").
				Mark(ierr.ErrDatabase)
		}
	}
	return nil
}

func (r *ledgerRepository) GetEntryByID(ctx context.Context, id string) (*ledger.Entry, error) {
	var entry ledger.Entry
	query := `SELECT * FROM ledger_entries WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &entry, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Ledger entry with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get ledger entry").
			Mark(ierr.ErrDatabase)
	}
	return &entry, nil
}

func (r *ledgerRepository) ListEntriesByAccount(ctx context.Context, accountID string) ([]*ledger.Entry, error) {
	var entries []*ledger.Entry
	query := `SELECT * FROM ledger_entries
		WHERE ledger_account_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &entries, query, accountID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list ledger entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

func (r *ledgerRepository) ListEntriesByTransaction(ctx context.Context, transactionID string) ([]*ledger.Entry, error) {
	var entries []*ledger.Entry
	query := `SELECT * FROM ledger_entries
		WHERE ledger_transaction_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &entries, query, transactionID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list ledger entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

func (r *ledgerRepository) PostEntries(ctx context.Context, entryIDs []string) error {
	if len(entryIDs) == 0 {
		return nil
	}

	query := `UPDATE ledger_entries
		SET entry_status = $1, updated_at = $2
		WHERE id = ANY($3) AND tenant_id = $4
		AND entry_status = $5 AND discarded_at IS NULL AND status != $6`
	res, err := r.db.Querier(ctx).ExecContext(ctx, query,
		types.LedgerEntryStatusPosted, time.Now().UTC(), pq.Array(entryIDs),
		types.GetTenantID(ctx), types.LedgerEntryStatusPending, types.StatusDeleted)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to post ledger entries").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to post ledger entries").
			Mark(ierr.ErrDatabase)
	}
	if affected != int64(len(entryIDs)) {
		return ierr.NewError("not all entries could be posted").
			WithHint("Only pending entries that have not been discarded can post").
			WithReportableDetails(map[string]any{
				"requested": len(entryIDs),
				"posted":    affected,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func (r *ledgerRepository) DiscardEntries(ctx context.Context, entryIDs []string, at time.Time) error {
	if len(entryIDs) == 0 {
		return nil
	}

	query := `UPDATE ledger_entries
		SET discarded_at = $1, updated_at = $1
		WHERE id = ANY($2) AND tenant_id = $3
		AND entry_status = $4 AND discarded_at IS NULL AND status != $5`
	res, err := r.db.Querier(ctx).ExecContext(ctx, query,
		at, pq.Array(entryIDs), types.GetTenantID(ctx),
		types.LedgerEntryStatusPending, types.StatusDeleted)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to discard ledger entries").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to discard ledger entries").
			Mark(ierr.ErrDatabase)
	}
	if affected != int64(len(entryIDs)) {
		return ierr.NewError("not all entries could be discarded").
			WithHint("Only pending entries can be discarded").
			WithReportableDetails(map[string]any{
				"requested": len(entryIDs),
				"discarded": affected,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func (r *ledgerRepository) SumEntries(ctx context.Context, accountID string, mode types.BalanceMode) (decimal.Decimal, error) {
	statusClause := `entry_status = $4`
	args := []interface{}{accountID, types.GetTenantID(ctx), types.StatusDeleted, types.LedgerEntryStatusPosted}
	if mode == types.BalanceModeAvailable {
		statusClause = `(entry_status = $4 OR (entry_status = $5 AND discarded_at IS NULL))`
		args = append(args, types.LedgerEntryStatusPending)
	}

	query := `SELECT COALESCE(SUM(
			CASE WHEN entry_type IN ('credit_grant_recognized', 'credit_applied_to_usage', 'billing_adjustment')
				THEN amount ELSE -amount END
		), 0) AS balance
		FROM ledger_entries
		WHERE ledger_account_id = $1 AND tenant_id = $2 AND status != $3 AND ` + statusClause

	var balance decimal.Decimal
	if err := r.db.Querier(ctx).GetContext(ctx, &balance, query, args...); err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to aggregate ledger balance").
			Mark(ierr.ErrDatabase)
	}
	return balance, nil
}

func (r *ledgerRepository) SumAppliedByCredit(ctx context.Context, accountID string) (map[string]decimal.Decimal, error) {
	query := `SELECT usage_credit_id, COALESCE(SUM(amount), 0) AS applied
		FROM ledger_entries
		WHERE ledger_account_id = $1 AND tenant_id = $2 AND status != $3
		AND usage_credit_id IS NOT NULL AND discarded_at IS NULL
		AND entry_type IN ('credit_balance_consumed', 'credit_grant_expired')
		GROUP BY usage_credit_id`

	var rows []struct {
		UsageCreditID string          `db:"usage_credit_id"`
		Applied       decimal.Decimal `db:"applied"`
	}
	err := r.db.Querier(ctx).SelectContext(ctx, &rows, query, accountID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to aggregate applied credit").
			Mark(ierr.ErrDatabase)
	}

	applied := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		applied[row.UsageCreditID] = row.Applied
	}
	return applied, nil
}
