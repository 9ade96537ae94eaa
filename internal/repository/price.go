package repository

import (
	"context"
	"database/sql"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/price"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type priceRepository struct {
	baseRepository
}

const insertPriceQuery = `
INSERT INTO prices (
	id, product_id, price_type, amount, currency, usage_meter_id, trial_period_days,
	is_free_plan, metadata, environment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :product_id, :price_type, :amount, :currency, :usage_meter_id, :trial_period_days,
	:is_free_plan, :metadata, :environment_id,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *priceRepository) Create(ctx context.Context, p *price.Price) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertPriceQuery, p)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ierr.WithError(err).
				WithHint("The product referenced by the price does not exist").
				WithReportableDetails(map[string]any{
					"product_id": p.ProductID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return ierr.WithError(err).
			WithHint("Failed to create price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *priceRepository) GetByID(ctx context.Context, id string) (*price.Price, error) {
	var p price.Price
	query := `SELECT * FROM prices WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &p, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Price with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get price").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}
