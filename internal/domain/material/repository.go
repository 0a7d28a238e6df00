package material

import (
	"context"

	"stockpit/internal/core/id"
)

// Repository defines the persistence contract for the materials catalog.
type Repository interface {
	Create(ctx context.Context, m *Material) error
	Update(ctx context.Context, m *Material) error
	GetByID(ctx context.Context, companyID, materialID id.ID) (*Material, error)
	GetByCode(ctx context.Context, companyID id.ID, code string) (*Material, error)
	List(ctx context.Context, companyID id.ID) ([]*Material, error)
}
