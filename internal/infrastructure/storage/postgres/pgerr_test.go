package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpit/internal/core/apperror"
)

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraint}
}

func TestMapError_UniqueViolationByConstraint(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		wantCode   string
	}{
		{"document number", "doc_receipts_company_id_number_key", apperror.CodeDuplicateCode},
		{"lot code", "reg_stock_lots_company_id_lot_code_key", apperror.CodeDuplicateCode},
		{"material catalog code", "cat_materials_company_id_code_key", apperror.CodeConflict},
		{"one issue per request", "doc_issues_request_id_key", apperror.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(uniqueViolation(tt.constraint), "row", "1")
			assert.True(t, apperror.IsCode(mapped, tt.wantCode))
		})
	}
}

func TestMapError_OnlyCodeCollisionsAreRetryable(t *testing.T) {
	// A catalog duplicate must not trigger the code generator's retry loop.
	mapped := MapError(uniqueViolation("cat_materials_company_id_code_key"), "material", "1")
	assert.False(t, apperror.IsCode(mapped, apperror.CodeDuplicateCode))
}

func TestMapError_NoRows(t *testing.T) {
	mapped := MapError(pgx.ErrNoRows, "receipt", "42")
	assert.True(t, apperror.IsNotFound(mapped))
}

func TestMapError_ForeignKey(t *testing.T) {
	mapped := MapError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "doc_receipts_purchase_order_id_fkey"}, "receipt", "1")
	assert.True(t, apperror.IsCode(mapped, apperror.CodeInvalidInput))
}

func TestMapError_CheckViolation(t *testing.T) {
	mapped := MapError(&pgconn.PgError{Code: pgCheckViolation, ConstraintName: "reg_stock_lots_remain_check"}, "lot", "1")
	assert.True(t, apperror.IsCode(mapped, apperror.CodeConflict))
}

func TestMapError_UnknownError(t *testing.T) {
	mapped := MapError(errors.New("connection reset"), "row", "1")
	appErr, ok := apperror.AsAppError(mapped)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternal, appErr.Code)
}
