package repository

import (
	"context"
	"database/sql"

	goerrors "github.com/cockroachdb/errors"
	"github.com/meterline/meterline/internal/domain/purchase"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

type purchaseRepository struct {
	baseRepository
}

const insertPurchaseQuery = `
INSERT INTO purchases (
	id, purchase_number, customer_id, price_id, quantity, purchase_status,
	subtotal, fee_amount, discount_amount, total, discount_code, paid_at,
	livemode, metadata, environment_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by
) VALUES (
	:id, :purchase_number, :customer_id, :price_id, :quantity, :purchase_status,
	:subtotal, :fee_amount, :discount_amount, :total, :discount_code, :paid_at,
	:livemode, :metadata, :environment_id,
	:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
)`

func (r *purchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	_, err := r.db.Querier(ctx).NamedExecContext(ctx, insertPurchaseQuery, p)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A purchase with this purchase number already exists").
				WithReportableDetails(map[string]any{
					"purchase_number": p.PurchaseNumber,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create purchase").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *purchaseRepository) GetByID(ctx context.Context, id string) (*purchase.Purchase, error) {
	var p purchase.Purchase
	query := `SELECT * FROM purchases WHERE id = $1 AND tenant_id = $2 AND status != $3`
	err := r.db.Querier(ctx).GetContext(ctx, &p, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Purchase with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get purchase").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

const updatePurchaseQuery = `
UPDATE purchases SET
	purchase_status = :purchase_status,
	discount_amount = :discount_amount,
	total = :total,
	discount_code = :discount_code,
	paid_at = :paid_at,
	metadata = :metadata,
	updated_at = :updated_at,
	updated_by = :updated_by
WHERE id = :id AND tenant_id = :tenant_id AND status != 'deleted'`

func (r *purchaseRepository) Update(ctx context.Context, p *purchase.Purchase) error {
	p.Touch(ctx)

	res, err := r.db.Querier(ctx).NamedExecContext(ctx, updatePurchaseQuery, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update purchase").
			Mark(ierr.ErrDatabase)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update purchase").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("purchase was not found").
			WithHintf("Purchase with ID %s was not found", p.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
