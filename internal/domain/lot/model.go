// Package lot provides the stock lot ledger: the persisted set of stock lots
// and the FIFO allocation planner that consumes them.
package lot

import (
	"fmt"
	"time"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
)

// Source identifies where a lot's quantity came from.
type Source string

const (
	// SourceReceipt marks lots created by a goods receipt line.
	SourceReceipt Source = "receipt"
	// SourceAdjustment marks lots created by a positive stock adjustment.
	SourceAdjustment Source = "adjustment"
)

// Lot is a discrete batch of on-hand quantity for one material in one
// warehouse. Invariant: Remain + Issue == Quantity and Remain >= 0.
//
// A lot is never deleted by normal issue activity; only its originating
// receipt's reversal may delete it.
type Lot struct {
	ID          id.ID `db:"id" json:"id"`
	CompanyID   id.ID `db:"company_id" json:"companyId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	MaterialID  id.ID `db:"material_id" json:"materialId"`

	// LotCode is the tenant-unique traceability code, derived from the
	// originating document code, material, line index and a timestamp.
	LotCode string `db:"lot_code" json:"lotCode"`

	// Quantity is the original amount received or adjusted in.
	Quantity types.Quantity `db:"quantity" json:"quantity"`
	// Issue is the cumulative amount consumed from this lot.
	Issue types.Quantity `db:"issue" json:"issue"`
	// Remain is the amount still available.
	Remain types.Quantity `db:"remain" json:"remain"`

	// Price is the unit price carried from the PO line or material master.
	Price types.Money `db:"price" json:"price"`

	Source Source `db:"source" json:"source"`

	// ReceiptID and ReceiptLineID link receipt-born lots back to their origin.
	ReceiptID     *id.ID `db:"receipt_id" json:"receiptId,omitempty"`
	ReceiptLineID *id.ID `db:"receipt_line_id" json:"receiptLineId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewLot creates a fresh, fully available lot.
func NewLot(companyID, warehouseID, materialID id.ID, lotCode string, quantity types.Quantity, price types.Money, source Source) *Lot {
	return &Lot{
		ID:          id.New(),
		CompanyID:   companyID,
		WarehouseID: warehouseID,
		MaterialID:  materialID,
		LotCode:     lotCode,
		Quantity:    quantity,
		Issue:       0,
		Remain:      quantity,
		Price:       price,
		Source:      source,
		CreatedAt:   time.Now().UTC(),
	}
}

// CheckInvariant verifies Remain + Issue == Quantity and Remain >= 0.
func (l *Lot) CheckInvariant() error {
	if l.Remain < 0 {
		return apperror.NewInternal(fmt.Errorf("lot %s: negative remain %s", l.LotCode, l.Remain))
	}
	if l.Remain+l.Issue != l.Quantity {
		return apperror.NewInternal(fmt.Errorf("lot %s: remain %s + issue %s != quantity %s",
			l.LotCode, l.Remain, l.Issue, l.Quantity))
	}
	return nil
}

// Take is one leg of an allocation plan: a quantity to consume from one lot.
type Take struct {
	LotID    id.ID
	LotCode  string
	Quantity types.Quantity
}
