package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpit/internal/core/id"
	"stockpit/internal/domain/adjustment"
	"stockpit/internal/infrastructure/storage/postgres"
)

const adjustmentsTable = "doc_stock_adjustments"

var _ adjustment.Repository = (*AdjustmentRepo)(nil)

// AdjustmentRepo implements adjustment.Repository. Append-only.
type AdjustmentRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewAdjustmentRepo creates a new adjustment repository.
func NewAdjustmentRepo(txm *postgres.TxManager) *AdjustmentRepo {
	return &AdjustmentRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var adjustmentColumns = []string{
	"id", "company_id", "number", "date", "version",
	"warehouse_id", "material_id", "quantity", "reason", "lot_code",
	"created_at", "updated_at", "created_by",
}

// Create inserts the audit row.
func (r *AdjustmentRepo) Create(ctx context.Context, a *adjustment.StockAdjustment) error {
	q := r.builder.Insert(adjustmentsTable).
		Columns(adjustmentColumns...).
		Values(
			a.ID, a.CompanyID, a.Number, a.Date, a.Version,
			a.WarehouseID, a.MaterialID, a.Quantity, a.Reason, a.LotCode,
			a.CreatedAt, a.UpdatedAt, a.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "stock_adjustment", a.ID)
	}
	return nil
}

// GetByID returns one adjustment, company-scoped.
func (r *AdjustmentRepo) GetByID(ctx context.Context, companyID, adjustmentID id.ID) (*adjustment.StockAdjustment, error) {
	q := r.builder.Select(adjustmentColumns...).
		From(adjustmentsTable).
		Where(squirrel.Eq{"id": adjustmentID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var a adjustment.StockAdjustment
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &a, sql, args...); err != nil {
		return nil, postgres.MapError(err, "stock_adjustment", adjustmentID)
	}
	return &a, nil
}

// List returns the audit trail matching the filter, newest first.
func (r *AdjustmentRepo) List(ctx context.Context, companyID id.ID, filter adjustment.ListFilter) ([]*adjustment.StockAdjustment, error) {
	q := r.builder.Select(adjustmentColumns...).
		From(adjustmentsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("date DESC", "number DESC")

	if !id.IsNil(filter.WarehouseID) {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}
	if !id.IsNil(filter.MaterialID) {
		q = q.Where(squirrel.Eq{"material_id": filter.MaterialID})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []*adjustment.StockAdjustment
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "stock_adjustment", nil)
	}
	return rows, nil
}
