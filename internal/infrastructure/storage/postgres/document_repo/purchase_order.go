// Package document_repo provides the PostgreSQL implementations of the
// document repositories: purchase orders, receipts, withdrawal requests,
// issues and stock adjustments.
package document_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/purchaseorder"
	"stockpit/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderLinesTable = "doc_purchase_order_lines"
	receiptLinesTable       = "doc_receipt_lines"
)

var _ purchaseorder.Repository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implements purchaseorder.Repository.
type PurchaseOrderRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var poColumns = []string{
	"id", "company_id", "number", "date", "version",
	"supplier_id", "status", "total_price",
	"created_at", "updated_at", "created_by",
}

// Create inserts the header.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *purchaseorder.PurchaseOrder) error {
	q := r.builder.Insert(purchaseOrdersTable).
		Columns(poColumns...).
		Values(
			po.ID, po.CompanyID, po.Number, po.Date, po.Version,
			po.SupplierID, po.Status, po.TotalPrice,
			po.CreatedAt, po.UpdatedAt, po.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "purchase_order", po.ID)
	}
	return nil
}

// Update persists the header with an optimistic version check.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *purchaseorder.PurchaseOrder) error {
	q := r.builder.Update(purchaseOrdersTable).
		Set("supplier_id", po.SupplierID).
		Set("status", po.Status).
		Set("total_price", po.TotalPrice).
		Set("date", po.Date).
		Set("version", po.Version).
		Set("updated_at", po.UpdatedAt).
		Where(squirrel.Eq{"id": po.ID, "company_id": po.CompanyID}).
		Where(squirrel.Eq{"version": po.Version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "purchase_order", po.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("purchase_order", po.ID)
	}
	return nil
}

// GetByID returns the header, company-scoped.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, companyID, poID id.ID) (*purchaseorder.PurchaseOrder, error) {
	q := r.builder.Select(poColumns...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"id": poID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var po purchaseorder.PurchaseOrder
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &po, sql, args...); err != nil {
		return nil, postgres.MapError(err, "purchase_order", poID)
	}
	return &po, nil
}

// GetLines returns the table part in line order.
func (r *PurchaseOrderRepo) GetLines(ctx context.Context, poID id.ID) ([]purchaseorder.Line, error) {
	q := r.builder.Select("line_id", "line_no", "material_id", "quantity", "unit_price", "unit").
		From(purchaseOrderLinesTable).
		Where(squirrel.Eq{"po_id": poID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var lines []purchaseorder.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.MapError(err, "purchase_order_line", poID)
	}
	return lines, nil
}

// SaveLines replaces the table part.
func (r *PurchaseOrderRepo) SaveLines(ctx context.Context, poID id.ID, lines []purchaseorder.Line) error {
	querier := r.txm.GetQuerier(ctx)

	delSQL, delArgs, err := r.builder.Delete(purchaseOrderLinesTable).
		Where(squirrel.Eq{"po_id": poID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return postgres.MapError(err, "purchase_order_line", poID)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(purchaseOrderLinesTable).
		Columns("line_id", "po_id", "line_no", "material_id", "quantity", "unit_price", "unit")
	for _, line := range lines {
		q = q.Values(line.LineID, poID, line.LineNo, line.MaterialID, line.Quantity, line.UnitPrice, line.Unit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "purchase_order_line", poID)
	}
	return nil
}

// List returns headers matching the filter, newest first.
func (r *PurchaseOrderRepo) List(ctx context.Context, companyID id.ID, filter purchaseorder.ListFilter) ([]*purchaseorder.PurchaseOrder, error) {
	q := r.builder.Select(poColumns...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("date DESC", "number DESC")

	if !id.IsNil(filter.SupplierID) {
		q = q.Where(squirrel.Eq{"supplier_id": filter.SupplierID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
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

	var orders []*purchaseorder.PurchaseOrder
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &orders, sql, args...); err != nil {
		return nil, postgres.MapError(err, "purchase_order", nil)
	}
	return orders, nil
}

// ReceivedQuantities sums receipt line quantities per material across all
// receipts of the order, optionally excluding one receipt.
func (r *PurchaseOrderRepo) ReceivedQuantities(ctx context.Context, poID id.ID, excludeReceiptID *id.ID) (map[id.ID]types.Quantity, error) {
	q := r.builder.Select("rl.material_id", "COALESCE(SUM(rl.quantity), 0) AS quantity").
		From(receiptLinesTable + " rl").
		Join("doc_receipts r ON r.id = rl.receipt_id").
		Where(squirrel.Eq{"r.purchase_order_id": poID}).
		GroupBy("rl.material_id")

	if excludeReceiptID != nil {
		q = q.Where(squirrel.NotEq{"rl.receipt_id": *excludeReceiptID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []struct {
		MaterialID id.ID          `db:"material_id"`
		Quantity   types.Quantity `db:"quantity"`
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "receipt_line", poID)
	}

	received := make(map[id.ID]types.Quantity, len(rows))
	for _, row := range rows {
		received[row.MaterialID] = row.Quantity
	}
	return received, nil
}

// HasReceipts reports whether any receipt references the order.
func (r *PurchaseOrderRepo) HasReceipts(ctx context.Context, poID id.ID) (bool, error) {
	sql, args, err := r.builder.Select("1").
		From("doc_receipts").
		Where(squirrel.Eq{"purchase_order_id": poID}).
		Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	var one int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, postgres.MapError(err, "receipt", poID)
	}
	return true, nil
}

// UpdateStatus sets the status column only.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, companyID, poID id.ID, status purchaseorder.Status) error {
	q := r.builder.Update(purchaseOrdersTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": poID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "purchase_order", poID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase_order", poID)
	}
	return nil
}
