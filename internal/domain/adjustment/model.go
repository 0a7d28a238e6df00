// Package adjustment provides the StockAdjustment document: a signed
// correction of lot stock outside the receipt/issue flows, with an
// immutable audit trail.
package adjustment

import (
	"context"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/entity"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// StockAdjustment is one signed stock correction. Positive deltas
// originate a new lot; negative deltas consume existing lots FIFO.
type StockAdjustment struct {
	entity.Document

	// WarehouseID is the warehouse being corrected
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// MaterialID is the material being corrected
	MaterialID id.ID `db:"material_id" json:"materialId"`

	// Quantity is the signed delta, never zero
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Reason is the mandatory audit justification
	Reason string `db:"reason" json:"reason"`

	// LotCode is set for positive adjustments: the code of the lot this
	// adjustment originated
	LotCode string `db:"lot_code" json:"lotCode,omitempty"`
}

// NewStockAdjustment creates a new adjustment document.
func NewStockAdjustment(companyID, warehouseID, materialID id.ID, quantity types.Quantity, reason string) *StockAdjustment {
	return &StockAdjustment{
		Document:    entity.NewDocument(companyID),
		WarehouseID: warehouseID,
		MaterialID:  materialID,
		Quantity:    quantity,
		Reason:      reason,
	}
}

// Validate implements entity.Validatable.
func (a *StockAdjustment) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(a.WarehouseID) {
		return apperror.NewMissingWarehouse()
	}
	if id.IsNil(a.MaterialID) {
		return apperror.NewInvalidInput("material is required").WithDetail("field", "materialId")
	}
	if a.Quantity.IsZero() {
		return apperror.NewInvalidInput("quantity must be non-zero").WithDetail("field", "quantity")
	}
	if a.Reason == "" {
		return apperror.NewInvalidInput("reason is required").WithDetail("field", "reason")
	}
	return nil
}
