// Package code_repo provides the PostgreSQL implementation of the
// document code store. Sequences are derived from the document tables
// themselves; there is no counter table to drift.
package code_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockpit/internal/core/id"
	"stockpit/internal/domain/codes"
	"stockpit/internal/infrastructure/storage/postgres"
)

// familyTables maps each code family to the document table carrying its
// numbers.
var familyTables = map[codes.Family]string{
	codes.FamilyPurchaseOrder: "doc_purchase_orders",
	codes.FamilyReceipt:       "doc_receipts",
	codes.FamilyWithdrawal:    "doc_withdrawal_requests",
	codes.FamilyIssue:         "doc_issues",
	codes.FamilyAdjustment:    "doc_stock_adjustments",
}

var _ codes.Store = (*CodeRepo)(nil)

// CodeRepo implements codes.Store.
type CodeRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCodeRepo creates a new code store.
func NewCodeRepo(txm *postgres.TxManager) *CodeRepo {
	return &CodeRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func tableFor(family codes.Family) (string, error) {
	table, ok := familyTables[family]
	if !ok {
		return "", fmt.Errorf("unknown code family %q", family)
	}
	return table, nil
}

// MaxSequence returns the highest NNNN among the company's codes sharing
// dayPrefix, or 0 when none exist.
func (r *CodeRepo) MaxSequence(ctx context.Context, companyID id.ID, family codes.Family, dayPrefix string) (int, error) {
	table, err := tableFor(family)
	if err != nil {
		return 0, err
	}

	q := r.builder.Select("COALESCE(MAX(right(number, 4)::int), 0)").
		From(table).
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Like{"number": dayPrefix + "%"})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select: %w", err)
	}

	var maxSeq int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&maxSeq); err != nil {
		return 0, postgres.MapError(err, "document_code", dayPrefix)
	}
	return maxSeq, nil
}

// Exists reports whether the exact code is already used for the company.
func (r *CodeRepo) Exists(ctx context.Context, companyID id.ID, family codes.Family, code string) (bool, error) {
	table, err := tableFor(family)
	if err != nil {
		return false, err
	}

	q := r.builder.Select("COUNT(1)").
		From(table).
		Where(squirrel.Eq{"company_id": companyID, "number": code})

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	var count int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return false, postgres.MapError(err, "document_code", code)
	}
	return count > 0, nil
}
