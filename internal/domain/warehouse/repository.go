package warehouse

import (
	"context"

	"stockpit/internal/core/id"
)

// Repository defines the persistence contract for the warehouses catalog.
type Repository interface {
	Create(ctx context.Context, w *Warehouse) error
	GetByID(ctx context.Context, companyID, warehouseID id.ID) (*Warehouse, error)
	List(ctx context.Context, companyID id.ID) ([]*Warehouse, error)
}
