// Package lot_repo provides the PostgreSQL implementation of the lot
// store repository.
package lot_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/lot"
	"stockpit/internal/infrastructure/storage/postgres"
)

const lotsTable = "reg_stock_lots"

var lotColumns = []string{
	"id", "company_id", "warehouse_id", "material_id", "lot_code",
	"quantity", "issue", "remain", "price", "source",
	"receipt_id", "receipt_line_id", "created_at",
}

var _ lot.Repository = (*LotRepo)(nil)

// LotRepo implements lot.Repository.
type LotRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLotRepo creates a new lot repository.
func NewLotRepo(txm *postgres.TxManager) *LotRepo {
	return &LotRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new lot.
func (r *LotRepo) Create(ctx context.Context, l *lot.Lot) error {
	q := r.builder.Insert(lotsTable).
		Columns(lotColumns...).
		Values(
			l.ID, l.CompanyID, l.WarehouseID, l.MaterialID, l.LotCode,
			l.Quantity, l.Issue, l.Remain, l.Price, l.Source,
			l.ReceiptID, l.ReceiptLineID, l.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "lot", l.ID)
	}
	return nil
}

// ListAvailableForUpdate returns lots with remaining stock for the scope,
// in FIFO order, locked for the duration of the transaction.
func (r *LotRepo) ListAvailableForUpdate(ctx context.Context, companyID, warehouseID, materialID id.ID) ([]*lot.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{
			"company_id":   companyID,
			"warehouse_id": warehouseID,
			"material_id":  materialID,
		}).
		Where(squirrel.Gt{"remain": 0}).
		OrderBy("created_at ASC", "id ASC").
		Suffix("FOR UPDATE")

	return r.queryLots(ctx, q)
}

// ApplyTakes decrements remain and increments issue per take. The
// remain >= quantity guard in the WHERE clause turns a concurrent drain
// into a zero-row update, surfaced as ConcurrentModification.
func (r *LotRepo) ApplyTakes(ctx context.Context, takes []lot.Take) error {
	querier := r.txm.GetQuerier(ctx)
	for _, take := range takes {
		q := r.builder.Update(lotsTable).
			Set("remain", squirrel.Expr("remain - ?", take.Quantity)).
			Set("issue", squirrel.Expr("issue + ?", take.Quantity)).
			Where(squirrel.Eq{"id": take.LotID}).
			Where(squirrel.GtOrEq{"remain": take.Quantity})

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}

		tag, err := querier.Exec(ctx, sql, args...)
		if err != nil {
			return postgres.MapError(err, "lot", take.LotID)
		}
		if tag.RowsAffected() == 0 {
			return apperror.NewConcurrentModification("lot", take.LotID)
		}
	}
	return nil
}

// ListByReceipt returns all lots created by a receipt.
func (r *LotRepo) ListByReceipt(ctx context.Context, receiptID id.ID) ([]*lot.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{"receipt_id": receiptID}).
		OrderBy("created_at ASC")

	return r.queryLots(ctx, q)
}

// DeleteByReceipt removes the lots a receipt created.
func (r *LotRepo) DeleteByReceipt(ctx context.Context, receiptID id.ID) error {
	q := r.builder.Delete(lotsTable).
		Where(squirrel.Eq{"receipt_id": receiptID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "lot", receiptID)
	}
	return nil
}

// ListByMaterial returns all lots for a material in a warehouse.
func (r *LotRepo) ListByMaterial(ctx context.Context, companyID, warehouseID, materialID id.ID) ([]*lot.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{
			"company_id":   companyID,
			"warehouse_id": warehouseID,
			"material_id":  materialID,
		}).
		OrderBy("created_at ASC", "id ASC")

	return r.queryLots(ctx, q)
}

// ListByWarehouse returns all lots in a warehouse.
func (r *LotRepo) ListByWarehouse(ctx context.Context, companyID, warehouseID id.ID) ([]*lot.Lot, error) {
	q := r.builder.Select(lotColumns...).
		From(lotsTable).
		Where(squirrel.Eq{
			"company_id":   companyID,
			"warehouse_id": warehouseID,
		}).
		OrderBy("material_id ASC", "created_at ASC")

	return r.queryLots(ctx, q)
}

func (r *LotRepo) queryLots(ctx context.Context, q squirrel.SelectBuilder) ([]*lot.Lot, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var lots []*lot.Lot
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lots, sql, args...); err != nil {
		return nil, postgres.MapError(err, "lot", nil)
	}
	return lots, nil
}
