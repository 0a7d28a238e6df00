// Package receipt provides the Receipt document: goods arriving against a
// purchase order. Each receipt line originates exactly one stock lot.
package receipt

import (
	"context"
	"time"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/entity"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// Receipt records goods received into a warehouse against a purchase order.
type Receipt struct {
	entity.Document

	// PurchaseOrderID references the order this receipt draws against
	PurchaseOrderID id.ID `db:"purchase_order_id" json:"purchaseOrderId"`

	// WarehouseID is where the goods were received
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	// ReceivedAt is the physical receiving time
	ReceivedAt time.Time `db:"received_at" json:"receivedAt"`

	// TotalPrice is the sum of line amounts, priced from the order
	TotalPrice types.Money `db:"total_price" json:"totalPrice"`

	// Lines is the table part: received materials
	Lines []Line `db:"-" json:"lines"`
}

// Line is one received material position. UnitPrice always comes from the
// matching purchase order line, never from the caller.
type Line struct {
	LineID     id.ID          `db:"line_id" json:"lineId"`
	LineNo     int            `db:"line_no" json:"lineNo"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	POLineID   id.ID          `db:"po_line_id" json:"poLineId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice  types.Money    `db:"unit_price" json:"unitPrice"`
}

// Amount returns the line total.
func (l Line) Amount() types.Money {
	return l.UnitPrice.Mul(l.Quantity.Decimal())
}

// NewReceipt creates a new receipt header.
func NewReceipt(companyID, purchaseOrderID, warehouseID id.ID, receivedAt time.Time) *Receipt {
	r := &Receipt{
		Document:        entity.NewDocument(companyID),
		PurchaseOrderID: purchaseOrderID,
		WarehouseID:     warehouseID,
		ReceivedAt:      receivedAt.UTC(),
		TotalPrice:      types.ZeroMoney(),
		Lines:           make([]Line, 0),
	}
	if receivedAt.IsZero() {
		r.ReceivedAt = r.CreatedAt
	}
	return r
}

// RecalculateTotal updates TotalPrice from lines.
func (r *Receipt) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, line := range r.Lines {
		total = total.Add(line.Amount())
	}
	r.TotalPrice = total
}

// Validate implements entity.Validatable.
func (r *Receipt) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(r.PurchaseOrderID) {
		return apperror.NewInvalidInput("purchase order is required").WithDetail("field", "purchaseOrderId")
	}
	if id.IsNil(r.WarehouseID) {
		return apperror.NewMissingWarehouse()
	}
	if len(r.Lines) == 0 {
		return apperror.NewInvalidInput("at least one line is required").WithDetail("field", "lines")
	}
	return nil
}

// LineInput is a caller-supplied receipt line. POLineID is optional; when
// nil the line binds to the first order line with the same material.
type LineInput struct {
	MaterialID id.ID          `json:"materialId"`
	POLineID   id.ID          `json:"poLineId"`
	Quantity   types.Quantity `json:"quantity"`
}

// CreateInput is the payload for creating a receipt.
type CreateInput struct {
	PurchaseOrderID id.ID       `json:"purchaseOrderId"`
	WarehouseID     id.ID       `json:"warehouseId"`
	ReceivedAt      time.Time   `json:"receivedAt"`
	Lines           []LineInput `json:"lines"`
	CreatedBy       string      `json:"-"`
}

func validateLineInputs(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewInvalidInput("at least one line is required").WithDetail("field", "lines")
	}
	seenMaterial := make(map[id.ID]bool, len(lines))
	seenPOLine := make(map[id.ID]bool, len(lines))
	for i, line := range lines {
		if id.IsNil(line.MaterialID) {
			return apperror.NewInvalidInput("material is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewInvalidInput("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if seenMaterial[line.MaterialID] {
			return apperror.NewInvalidInput("duplicate material in lines").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1).
				WithDetail("material_id", line.MaterialID.String())
		}
		seenMaterial[line.MaterialID] = true
		if !id.IsNil(line.POLineID) {
			if seenPOLine[line.POLineID] {
				return apperror.NewInvalidInput("duplicate order line reference").
					WithDetail("field", "lines").
					WithDetail("lineNo", i+1)
			}
			seenPOLine[line.POLineID] = true
		}
	}
	return nil
}
