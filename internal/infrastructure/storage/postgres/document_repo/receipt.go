package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/receipt"
	"stockpit/internal/infrastructure/storage/postgres"
)

const receiptsTable = "doc_receipts"

var _ receipt.Repository = (*ReceiptRepo)(nil)

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txm *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var receiptColumns = []string{
	"id", "company_id", "number", "date", "version",
	"purchase_order_id", "warehouse_id", "received_at", "total_price",
	"created_at", "updated_at", "created_by",
}

// Create inserts the header.
func (r *ReceiptRepo) Create(ctx context.Context, rec *receipt.Receipt) error {
	q := r.builder.Insert(receiptsTable).
		Columns(receiptColumns...).
		Values(
			rec.ID, rec.CompanyID, rec.Number, rec.Date, rec.Version,
			rec.PurchaseOrderID, rec.WarehouseID, rec.ReceivedAt, rec.TotalPrice,
			rec.CreatedAt, rec.UpdatedAt, rec.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "receipt", rec.ID)
	}
	return nil
}

// Update persists the header with an optimistic version check.
func (r *ReceiptRepo) Update(ctx context.Context, rec *receipt.Receipt) error {
	q := r.builder.Update(receiptsTable).
		Set("received_at", rec.ReceivedAt).
		Set("total_price", rec.TotalPrice).
		Set("version", rec.Version).
		Set("updated_at", rec.UpdatedAt).
		Where(squirrel.Eq{"id": rec.ID, "company_id": rec.CompanyID}).
		Where(squirrel.Eq{"version": rec.Version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "receipt", rec.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("receipt", rec.ID)
	}
	return nil
}

// GetByID returns the header, company-scoped.
func (r *ReceiptRepo) GetByID(ctx context.Context, companyID, receiptID id.ID) (*receipt.Receipt, error) {
	q := r.builder.Select(receiptColumns...).
		From(receiptsTable).
		Where(squirrel.Eq{"id": receiptID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rec receipt.Receipt
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		return nil, postgres.MapError(err, "receipt", receiptID)
	}
	return &rec, nil
}

// GetLines returns the table part in line order.
func (r *ReceiptRepo) GetLines(ctx context.Context, receiptID id.ID) ([]receipt.Line, error) {
	q := r.builder.Select("line_id", "line_no", "material_id", "po_line_id", "quantity", "unit_price").
		From(receiptLinesTable).
		Where(squirrel.Eq{"receipt_id": receiptID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var lines []receipt.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.MapError(err, "receipt_line", receiptID)
	}
	return lines, nil
}

// SaveLines replaces the table part.
func (r *ReceiptRepo) SaveLines(ctx context.Context, receiptID id.ID, lines []receipt.Line) error {
	querier := r.txm.GetQuerier(ctx)

	delSQL, delArgs, err := r.builder.Delete(receiptLinesTable).
		Where(squirrel.Eq{"receipt_id": receiptID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return postgres.MapError(err, "receipt_line", receiptID)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(receiptLinesTable).
		Columns("line_id", "receipt_id", "line_no", "material_id", "po_line_id", "quantity", "unit_price")
	for _, line := range lines {
		q = q.Values(line.LineID, receiptID, line.LineNo, line.MaterialID, line.POLineID, line.Quantity, line.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "receipt_line", receiptID)
	}
	return nil
}

// Delete removes the header; lines and lots cascade.
func (r *ReceiptRepo) Delete(ctx context.Context, companyID, receiptID id.ID) error {
	sql, args, err := r.builder.Delete(receiptsTable).
		Where(squirrel.Eq{"id": receiptID, "company_id": companyID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "receipt", receiptID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("receipt", receiptID)
	}
	return nil
}

// List returns headers matching the filter, newest first.
func (r *ReceiptRepo) List(ctx context.Context, companyID id.ID, filter receipt.ListFilter) ([]*receipt.Receipt, error) {
	q := r.builder.Select(receiptColumns...).
		From(receiptsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("date DESC", "number DESC")

	if !id.IsNil(filter.PurchaseOrderID) {
		q = q.Where(squirrel.Eq{"purchase_order_id": filter.PurchaseOrderID})
	}
	if !id.IsNil(filter.WarehouseID) {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
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

	var receipts []*receipt.Receipt
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &receipts, sql, args...); err != nil {
		return nil, postgres.MapError(err, "receipt", nil)
	}
	return receipts, nil
}
