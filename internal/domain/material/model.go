// Package material provides the materials catalog. A material is anything
// stocked in lots: raw material, spare part, consumable.
package material

import (
	"context"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/entity"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// Material is a stocked item.
type Material struct {
	entity.Catalog

	// Unit is the unit of measure (pcs, kg, m)
	Unit string `db:"unit" json:"unit"`

	// Price is the master price, used to value positive stock adjustments
	Price types.Money `db:"price" json:"price"`
}

// NewMaterial creates a new Material.
func NewMaterial(companyID id.ID, code, name, unit string, price types.Money) *Material {
	return &Material{
		Catalog: entity.NewCatalog(companyID, code, name),
		Unit:    unit,
		Price:   price,
	}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}
	if m.Unit == "" {
		return apperror.NewInvalidInput("unit is required").WithDetail("field", "unit")
	}
	if m.Price.IsNegative() {
		return apperror.NewInvalidInput("price cannot be negative").WithDetail("field", "price")
	}
	return nil
}
