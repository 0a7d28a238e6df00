package purchaseorder

import (
	"context"

	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// ListFilter narrows purchase order listings.
type ListFilter struct {
	SupplierID id.ID
	Status     Status
	Limit      int
	Offset     int
}

// Repository defines the persistence contract for purchase orders.
type Repository interface {
	Create(ctx context.Context, po *PurchaseOrder) error

	// Update persists the header with an optimistic version check and
	// fails with ConcurrentModification on a stale version.
	Update(ctx context.Context, po *PurchaseOrder) error

	GetByID(ctx context.Context, companyID, poID id.ID) (*PurchaseOrder, error)
	GetLines(ctx context.Context, poID id.ID) ([]Line, error)

	// SaveLines replaces the table part (delete + insert).
	SaveLines(ctx context.Context, poID id.ID, lines []Line) error

	List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*PurchaseOrder, error)

	// ReceivedQuantities sums receipt line quantities against the order per
	// material, optionally excluding one receipt (used when a receipt is
	// being replaced and must not count against itself).
	ReceivedQuantities(ctx context.Context, poID id.ID, excludeReceiptID *id.ID) (map[id.ID]types.Quantity, error)

	// HasReceipts reports whether any receipt references the order.
	HasReceipts(ctx context.Context, poID id.ID) (bool, error)

	// UpdateStatus sets the status column only.
	UpdateStatus(ctx context.Context, companyID, poID id.ID, status Status) error
}
