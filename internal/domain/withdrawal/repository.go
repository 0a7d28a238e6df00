package withdrawal

import (
	"context"

	"stockpit/internal/core/id"
)

// ListFilter narrows withdrawal request listings.
type ListFilter struct {
	WarehouseID id.ID
	Status      Status
	Limit       int
	Offset      int
}

// Repository defines the persistence contract for withdrawal requests.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, companyID, requestID id.ID) (*Request, error)
	GetLines(ctx context.Context, requestID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, requestID id.ID, lines []Line) error
	List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*Request, error)

	// UpdateStatus sets the status column only.
	UpdateStatus(ctx context.Context, companyID, requestID id.ID, status Status) error
}
