package lot

import (
	"context"

	"stockpit/internal/core/id"
)

// Repository is the persistence contract for the lot store.
// Implementations live in infrastructure/storage/postgres.
type Repository interface {
	// Create inserts a new lot.
	Create(ctx context.Context, l *Lot) error

	// ListAvailableForUpdate returns lots with Remain > 0 for the scope,
	// ordered by creation time then id, locked FOR UPDATE. Must run inside
	// a transaction; the lock serializes concurrent allocations so two
	// issues cannot both spend the same remaining quantity.
	ListAvailableForUpdate(ctx context.Context, companyID, warehouseID, materialID id.ID) ([]*Lot, error)

	// ApplyTakes decrements Remain and increments Issue per take. The
	// UPDATE guards remain >= quantity and fails if any row would go
	// negative.
	ApplyTakes(ctx context.Context, takes []Take) error

	// ListByReceipt returns all lots created by a receipt.
	ListByReceipt(ctx context.Context, receiptID id.ID) ([]*Lot, error)

	// DeleteByReceipt removes the lots a receipt created (receipt reversal).
	DeleteByReceipt(ctx context.Context, receiptID id.ID) error

	// ListByMaterial returns all lots for a material in a warehouse.
	ListByMaterial(ctx context.Context, companyID, warehouseID, materialID id.ID) ([]*Lot, error)

	// ListByWarehouse returns all lots in a warehouse.
	ListByWarehouse(ctx context.Context, companyID, warehouseID id.ID) ([]*Lot, error)
}
