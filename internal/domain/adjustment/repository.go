package adjustment

import (
	"context"

	"stockpit/internal/core/id"
)

// ListFilter narrows adjustment listings.
type ListFilter struct {
	WarehouseID id.ID
	MaterialID  id.ID
	Limit       int
	Offset      int
}

// Repository defines the persistence contract for adjustments. Rows are
// append-only; there is no update or delete.
type Repository interface {
	Create(ctx context.Context, a *StockAdjustment) error
	GetByID(ctx context.Context, companyID, adjustmentID id.ID) (*StockAdjustment, error)
	List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*StockAdjustment, error)
}
