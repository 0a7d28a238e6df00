package document_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockpit/internal/core/id"
	"stockpit/internal/domain/issue"
	"stockpit/internal/infrastructure/storage/postgres"
)

const (
	issuesTable     = "doc_issues"
	issueLinesTable = "doc_issue_lines"
)

var _ issue.Repository = (*IssueRepo)(nil)

// IssueRepo implements issue.Repository.
type IssueRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewIssueRepo creates a new issue repository.
func NewIssueRepo(txm *postgres.TxManager) *IssueRepo {
	return &IssueRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var issueColumns = []string{
	"id", "company_id", "number", "date", "version",
	"request_id", "warehouse_id", "issued_at",
	"created_at", "updated_at", "created_by",
}

// Create inserts the header. The unique index on request_id makes a
// concurrent double-issue fail here with a unique violation.
func (r *IssueRepo) Create(ctx context.Context, i *issue.Issue) error {
	q := r.builder.Insert(issuesTable).
		Columns(issueColumns...).
		Values(
			i.ID, i.CompanyID, i.Number, i.Date, i.Version,
			i.RequestID, i.WarehouseID, i.IssuedAt,
			i.CreatedAt, i.UpdatedAt, i.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "issue", i.ID)
	}
	return nil
}

// GetByID returns the header, company-scoped.
func (r *IssueRepo) GetByID(ctx context.Context, companyID, issueID id.ID) (*issue.Issue, error) {
	q := r.builder.Select(issueColumns...).
		From(issuesTable).
		Where(squirrel.Eq{"id": issueID, "company_id": companyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var doc issue.Issue
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...); err != nil {
		return nil, postgres.MapError(err, "issue", issueID)
	}
	return &doc, nil
}

// GetLines returns the table part in line order.
func (r *IssueRepo) GetLines(ctx context.Context, issueID id.ID) ([]issue.Line, error) {
	q := r.builder.Select("line_id", "line_no", "material_id", "lot_id", "lot_code", "quantity").
		From(issueLinesTable).
		Where(squirrel.Eq{"issue_id": issueID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var lines []issue.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, postgres.MapError(err, "issue_line", issueID)
	}
	return lines, nil
}

// SaveLines inserts the table part. Issues are immutable, so there is no
// delete pass.
func (r *IssueRepo) SaveLines(ctx context.Context, issueID id.ID, lines []issue.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(issueLinesTable).
		Columns("line_id", "issue_id", "line_no", "material_id", "lot_id", "lot_code", "quantity")
	for _, line := range lines {
		q = q.Values(line.LineID, issueID, line.LineNo, line.MaterialID, line.LotID, line.LotCode, line.Quantity)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "issue_line", issueID)
	}
	return nil
}

// List returns headers matching the filter, newest first.
func (r *IssueRepo) List(ctx context.Context, companyID id.ID, filter issue.ListFilter) ([]*issue.Issue, error) {
	q := r.builder.Select(issueColumns...).
		From(issuesTable).
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("date DESC", "number DESC")

	if !id.IsNil(filter.WarehouseID) {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseID})
	}
	if !id.IsNil(filter.RequestID) {
		q = q.Where(squirrel.Eq{"request_id": filter.RequestID})
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

	var issues []*issue.Issue
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &issues, sql, args...); err != nil {
		return nil, postgres.MapError(err, "issue", nil)
	}
	return issues, nil
}

// ExistsForRequest reports whether an issue already references the request.
func (r *IssueRepo) ExistsForRequest(ctx context.Context, companyID, requestID id.ID) (bool, error) {
	sql, args, err := r.builder.Select("1").
		From(issuesTable).
		Where(squirrel.Eq{"company_id": companyID, "request_id": requestID}).
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
		return false, postgres.MapError(err, "issue", requestID)
	}
	return true, nil
}
