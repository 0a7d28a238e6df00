// Package purchaseorder provides the PurchaseOrder document and its
// fulfillment engine. A purchase order is the allowance against which
// goods receipts are validated.
package purchaseorder

import (
	"context"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/entity"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusConfirmed Status = "confirmed"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// canTransition lists the allowed status moves. Received and Confirmed
// flip back and forth under the fulfillment engine only.
func canTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusSent || to == StatusCancelled
	case StatusSent:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusReceived || to == StatusCancelled
	case StatusReceived:
		return to == StatusConfirmed
	}
	return false
}

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	entity.Document

	// SupplierID references the supplier counterparty
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// Status is the lifecycle state
	Status Status `db:"status" json:"status"`

	// TotalPrice is the sum of line amounts
	TotalPrice types.Money `db:"total_price" json:"totalPrice"`

	// Lines is the table part: ordered materials
	Lines []Line `db:"-" json:"lines"`
}

// Line is one ordered material position.
type Line struct {
	LineID     id.ID          `db:"line_id" json:"lineId"`
	LineNo     int            `db:"line_no" json:"lineNo"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice  types.Money    `db:"unit_price" json:"unitPrice"`
	Unit       string         `db:"unit" json:"unit"`
}

// Amount returns the line total.
func (l Line) Amount() types.Money {
	return l.UnitPrice.Mul(l.Quantity.Decimal())
}

// NewPurchaseOrder creates a new draft purchase order.
func NewPurchaseOrder(companyID, supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:   entity.NewDocument(companyID),
		SupplierID: supplierID,
		Status:     StatusDraft,
		TotalPrice: types.ZeroMoney(),
		Lines:      make([]Line, 0),
	}
}

// AddLine appends an ordered position and recalculates the total.
func (po *PurchaseOrder) AddLine(materialID id.ID, quantity types.Quantity, unitPrice types.Money, unit string) {
	po.Lines = append(po.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(po.Lines) + 1,
		MaterialID: materialID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Unit:       unit,
	})
	po.RecalculateTotal()
}

// RecalculateTotal updates TotalPrice from lines.
func (po *PurchaseOrder) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, line := range po.Lines {
		total = total.Add(line.Amount())
	}
	po.TotalPrice = total
}

// LineByID returns the line with the given line id, or nil.
func (po *PurchaseOrder) LineByID(lineID id.ID) *Line {
	for i := range po.Lines {
		if po.Lines[i].LineID == lineID {
			return &po.Lines[i]
		}
	}
	return nil
}

// OrderedByMaterial sums ordered quantities per material across lines.
func (po *PurchaseOrder) OrderedByMaterial() map[id.ID]types.Quantity {
	ordered := make(map[id.ID]types.Quantity, len(po.Lines))
	for _, line := range po.Lines {
		ordered[line.MaterialID] += line.Quantity
	}
	return ordered
}

// IsReceivable reports whether receipts may reference this order. Only
// the statuses the fulfillment engine manages accept receipts; a sent
// order must be confirmed first.
func (po *PurchaseOrder) IsReceivable() bool {
	return po.Status == StatusConfirmed || po.Status == StatusReceived
}

// Validate implements entity.Validatable.
func (po *PurchaseOrder) Validate(ctx context.Context) error {
	if err := po.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(po.SupplierID) {
		return apperror.NewInvalidInput("supplier is required").WithDetail("field", "supplierId")
	}
	if len(po.Lines) == 0 {
		return apperror.NewInvalidInput("at least one line is required").WithDetail("field", "lines")
	}
	for _, line := range po.Lines {
		if id.IsNil(line.MaterialID) {
			return apperror.NewInvalidInput("material is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewInvalidInput("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewInvalidInput("unit price cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
	}
	return nil
}
