package issue

import (
	"context"

	"stockpit/internal/core/id"
)

// ListFilter narrows issue listings.
type ListFilter struct {
	WarehouseID id.ID
	RequestID   id.ID
	Limit       int
	Offset      int
}

// Repository defines the persistence contract for issues.
type Repository interface {
	Create(ctx context.Context, i *Issue) error
	GetByID(ctx context.Context, companyID, issueID id.ID) (*Issue, error)
	GetLines(ctx context.Context, issueID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, issueID id.ID, lines []Line) error
	List(ctx context.Context, companyID id.ID, filter ListFilter) ([]*Issue, error)

	// ExistsForRequest reports whether an issue already references the
	// request. The unique index on request_id is the race-proof backstop.
	ExistsForRequest(ctx context.Context, companyID, requestID id.ID) (bool, error)
}
