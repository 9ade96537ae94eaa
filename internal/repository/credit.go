package repository

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/credit"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type creditRepository struct {
	baseRepository
}

const insertCreditQuery = `
INSERT INTO usage_credits (
	id, ledger_account_id, subscription_id, usage_meter_id, credit_type, issued_amount,
	expires_at, priority, livemode, metadata, environment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :ledger_account_id, :subscription_id, :usage_meter_id, :credit_type, :issued_amount,
	:expires_at, :priority, :livemode, :metadata, :environment_id,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *creditRepository) Create(ctx context.Context, c *credit.Credit) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertCreditQuery, c)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ierr.WithError(err).
				WithHint("The ledger account referenced by the credit does not exist").
				WithReportableDetails(map[string]any{
					"ledger_account_id": c.LedgerAccountID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return ierr.WithError(err).
			WithHint("Failed to create usage credit").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *creditRepository) GetByID(ctx context.Context, id string) (*credit.Credit, error) {
	var c credit.Credit
	query := `SELECT * FROM usage_credits WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &c, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Usage credit with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get usage credit").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *creditRepository) ListByAccount(ctx context.Context, ledgerAccountID string) ([]*credit.Credit, error) {
	var credits []*credit.Credit
	query := `SELECT * FROM usage_credits
		WHERE ledger_account_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY created_at, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &credits, query, ledgerAccountID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list usage credits").
			Mark(ierr.ErrDatabase)
	}
	return credits, nil
}

func (r *creditRepository) ListExpiring(ctx context.Context, asOf time.Time) ([]*credit.Credit, error) {
	var credits []*credit.Credit
	query := `SELECT * FROM usage_credits
		WHERE tenant_id = $1 AND status = $2
		AND expires_at IS NOT NULL AND expires_at <= $3
		ORDER BY expires_at, id`
	err := r.db.Querier(ctx).SelectContext(ctx, &credits, query, types.GetTenantID(ctx), types.StatusPublished, asOf)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list expiring usage credits").
			Mark(ierr.ErrDatabase)
	}
	return credits, nil
}

func (r *creditRepository) Archive(ctx context.Context, id string) error {
	query := `UPDATE usage_credits SET status = $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4 AND status = $5`
	res, err := r.db.Querier(ctx).ExecContext(ctx, query,
		types.StatusArchived, time.Now().UTC(), id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to archive usage credit").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to archive usage credit").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("usage credit was not found or already archived").
			WithHintf("Usage credit with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
