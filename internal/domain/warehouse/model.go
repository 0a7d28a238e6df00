// Package warehouse provides the warehouses catalog.
package warehouse

import (
	"context"

	"stockpit/internal/core/entity"
	"stockpit/internal/core/id"
)

// Warehouse is a physical storage location. All lots and stock-moving
// documents are scoped to exactly one warehouse.
type Warehouse struct {
	entity.Catalog

	// Address is the physical location, free-form
	Address string `db:"address" json:"address,omitempty"`
}

// NewWarehouse creates a new Warehouse.
func NewWarehouse(companyID id.ID, code, name string) *Warehouse {
	return &Warehouse{Catalog: entity.NewCatalog(companyID, code, name)}
}

// Validate implements entity.Validatable.
func (w *Warehouse) Validate(ctx context.Context) error {
	return w.Catalog.Validate(ctx)
}
