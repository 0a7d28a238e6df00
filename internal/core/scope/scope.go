// Package scope carries the per-request company (tenant) and warehouse keys.
//
// Identity resolution is an external collaborator: the HTTP middleware reads
// the company key from token claims or headers and stores it here. The core
// never resolves scope itself, it only rejects operations lacking one.
package scope

import (
	"context"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
)

type ctxKey int

const (
	companyKey ctxKey = iota
	warehouseKey
)

// WithCompany stores the company key in context.
func WithCompany(ctx context.Context, companyID id.ID) context.Context {
	return context.WithValue(ctx, companyKey, companyID)
}

// CompanyID returns the company key, or a MissingCompany error when absent or nil.
func CompanyID(ctx context.Context) (id.ID, error) {
	companyID, ok := ctx.Value(companyKey).(id.ID)
	if !ok || id.IsNil(companyID) {
		return id.Nil(), apperror.NewMissingCompany()
	}
	return companyID, nil
}

// WithWarehouse stores the warehouse key in context.
func WithWarehouse(ctx context.Context, warehouseID id.ID) context.Context {
	return context.WithValue(ctx, warehouseKey, warehouseID)
}

// WarehouseID returns the warehouse key, or a MissingWarehouse error when
// absent or nil. Only warehouse-scoped operations call this.
func WarehouseID(ctx context.Context) (id.ID, error) {
	warehouseID, ok := ctx.Value(warehouseKey).(id.ID)
	if !ok || id.IsNil(warehouseID) {
		return id.Nil(), apperror.NewMissingWarehouse()
	}
	return warehouseID, nil
}

// OptionalWarehouseID returns the warehouse key or nil UUID when unset.
func OptionalWarehouseID(ctx context.Context) id.ID {
	warehouseID, _ := ctx.Value(warehouseKey).(id.ID)
	return warehouseID
}
