package entity

import (
	"context"
	"time"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
)

// Catalog is the base type for reference data (materials, warehouses).
type Catalog struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// CompanyID is the owning tenant
	CompanyID id.ID `db:"company_id" json:"companyId"`

	// Code is a human-readable identifier, unique per company
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// IsActive allows soft retirement without breaking references
	IsActive bool `db:"is_active" json:"isActive"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(companyID id.ID, code, name string) Catalog {
	now := time.Now().UTC()
	return Catalog{
		ID:        id.New(),
		CompanyID: companyID,
		Code:      code,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements Validatable.
func (c *Catalog) Validate(ctx context.Context) error {
	if id.IsNil(c.CompanyID) {
		return apperror.NewMissingCompany()
	}
	if c.Name == "" {
		return apperror.NewInvalidInput("name is required").WithDetail("field", "name")
	}
	return nil
}
