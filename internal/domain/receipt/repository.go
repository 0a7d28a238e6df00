package receipt

import (
	"context"

	"stockpit/internal/core/id"
)

// ListFilter narrows receipt listings.
type ListFilter struct {
	PurchaseOrderID id.ID
	WarehouseID     id.ID
	Limit           int
	Offset          int
}

// Repository defines the persistence contract for receipts.
type Repository interface {
	Create(ctx context.Context, r *Receipt) error

	// Update persists the header with an optimistic version check.
	Update(ctx context.Context, r *Receipt) error

	GetByID(ctx context.Context, companyID, receiptID id.ID) (*Receipt, error)
	GetLines(ctx context.Context, receiptID id.ID) ([]Line, error)

	// SaveLines replaces the table part (delete + insert).
	SaveLines(ctx context.Context, receiptID id.ID, lines []Line) error

	// Delete removes the header and its lines.
	Delete(ctx context.Context, companyID, receiptID id.ID) error

	List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*Receipt, error)
}
