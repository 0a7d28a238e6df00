package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stockpit/internal/core/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapError translates database errors into domain errors. Only a unique
// violation on a number or lot_code index surfaces as DuplicateCode, so
// the code generator's retry loop recovers exactly the collisions it can
// fix by regenerating; any other unique violation is a plain conflict.
func MapError(err error, entity string, entityID any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, entityID)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if isCodeConstraint(pgErr.ConstraintName) {
				return apperror.NewDuplicateCode(pgErr.Detail)
			}
			return apperror.NewConflict("duplicate value").
				WithDetail("constraint", pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return apperror.NewInvalidInput("referenced row does not exist").
				WithDetail("constraint", pgErr.ConstraintName)
		case pgCheckViolation:
			// The lot remain >= 0 check fires when a concurrent writer
			// drained the lot between plan and apply; callers treat it as
			// a conflict and the tx rolls back.
			return apperror.NewConflict("constraint violated: " + pgErr.ConstraintName)
		}
	}
	return apperror.NewInternal(err)
}

// isCodeConstraint reports whether a unique index guards a generated
// document number or lot code (the (company_id, number) and
// (company_id, lot_code) indexes).
func isCodeConstraint(name string) bool {
	return strings.Contains(name, "number") || strings.Contains(name, "lot_code")
}
