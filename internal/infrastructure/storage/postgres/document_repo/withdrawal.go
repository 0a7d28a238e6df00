package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/withdrawal"
	"stockpit/internal/infrastructure/storage/postgres"
)

const (
	withdrawalsTable     = "doc_withdrawal_requests"
	withdrawalLinesTable = "doc_withdrawal_request_lines"
)

var _ withdrawal.Repository = (*WithdrawalRepo)(nil)

// WithdrawalRepo implements withdrawal.Repository.
type WithdrawalRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewWithdrawalRepo creates a new withdrawal request repository.
func NewWithdrawalRepo(txm *postgres.TxManager) *WithdrawalRepo {
	return &WithdrawalRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var withdrawalColumns = []string{
	"id", "company_id", "number", "date", "version",
	"warehouse_id", "status", "requester",
	"created_at", "updated_at", "created_by",
}

// Create inserts the header.
func (r *WithdrawalRepo) Create(ctx context.Context, req *withdrawal.Request) error {
	q := r.builder.Insert(withdrawalsTable).
		Columns(withdrawalColumns...).
		Values(
			req.ID, req.CompanyID, req.Number, req.Date, req.Version,
			req.WarehouseID, req.Status, req.Requester,
			req.CreatedAt, req.UpdatedAt, req.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "withdrawal_request", req.ID)
	}
	return nil
}

// GetByID returns the header, company-scoped.
func (r *WithdrawalRepo) GetByID(ctx context.Context, companyID, requestID id.ID) (*withdrawal.Request, error) {
	q := r.builder.Select(withdrawalColumns...).
		From(withdrawalsTable).
		Where(squirrel.Eq{"id": requestID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var req withdrawal.Request
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &req, sql, args...); err != nil {
		return nil, postgres.MapError(err, "withdrawal_request", requestID)
	}
	return &req, nil
}

// GetLines returns the table part in line order.
func (r *WithdrawalRepo) GetLines(ctx context.Context, requestID id.ID) ([]withdrawal.Line, error) {
	q := r.builder.Select("line_id", "line_no", "material_id", "quantity").
		From(withdrawalLinesTable).
		Where(squirrel.Eq{"request_id": requestID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var lines []withdrawal.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.MapError(err, "withdrawal_request_line", requestID)
	}
	return lines, nil
}

// SaveLines replaces the table part.
func (r *WithdrawalRepo) SaveLines(ctx context.Context, requestID id.ID, lines []withdrawal.Line) error {
	querier := r.txm.GetQuerier(ctx)

	delSQL, delArgs, err := r.builder.Delete(withdrawalLinesTable).
		Where(squirrel.Eq{"request_id": requestID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return postgres.MapError(err, "withdrawal_request_line", requestID)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(withdrawalLinesTable).
		Columns("line_id", "request_id", "line_no", "material_id", "quantity")
	for _, line := range lines {
		q = q.Values(line.LineID, requestID, line.LineNo, line.MaterialID, line.Quantity)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "withdrawal_request_line", requestID)
	}
	return nil
}

// List returns headers matching the filter, newest first.
func (r *WithdrawalRepo) List(ctx context.Context, companyID id.ID, filter withdrawal.ListFilter) ([]*withdrawal.Request, error) {
	q := r.builder.Select(withdrawalColumns...).
		From(withdrawalsTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("date DESC", "number DESC")

	if !id.IsNil(filter.WarehouseID) {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
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

	var requests []*withdrawal.Request
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &requests, sql, args...); err != nil {
		return nil, postgres.MapError(err, "withdrawal_request", nil)
	}
	return requests, nil
}

// UpdateStatus sets the status column only.
func (r *WithdrawalRepo) UpdateStatus(ctx context.Context, companyID, requestID id.ID, status withdrawal.Status) error {
	q := r.builder.Update(withdrawalsTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": requestID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "withdrawal_request", requestID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("withdrawal_request", requestID)
	}
	return nil
}
