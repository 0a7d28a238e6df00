package dto

import (
	"time"

	"stockpit/internal/core/types"
	"stockpit/internal/domain/receipt"
)

// ReceiptResponse flattens the purchase order reference to the top level.
type ReceiptResponse struct {
	ID                  string                `json:"id"`
	Number              string                `json:"number"`
	PurchaseOrderID     string                `json:"purchaseOrderId"`
	PurchaseOrderNumber string                `json:"purchaseOrderNumber,omitempty"`
	WarehouseID         string                `json:"warehouseId"`
	ReceivedAt          time.Time             `json:"receivedAt"`
	TotalPrice          types.Money           `json:"totalPrice"`
	Lines               []ReceiptLineResponse `json:"lines,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
}

// ReceiptLineResponse is one received position.
type ReceiptLineResponse struct {
	LineID     string         `json:"lineId"`
	LineNo     int            `json:"lineNo"`
	MaterialID string         `json:"materialId"`
	PoLineID   string         `json:"poLineId"`
	Quantity   types.Quantity `json:"quantity"`
	UnitPrice  types.Money    `json:"unitPrice"`
}

// NewReceiptResponse shapes a receipt for the wire. poNumber may be
// empty when the caller did not resolve the order.
func NewReceiptResponse(r *receipt.Receipt, poNumber string) ReceiptResponse {
	resp := ReceiptResponse{
		ID:                  r.ID.String(),
		Number:              r.Number,
		PurchaseOrderID:     r.PurchaseOrderID.String(),
		PurchaseOrderNumber: poNumber,
		WarehouseID:         r.WarehouseID.String(),
		ReceivedAt:          r.ReceivedAt,
		TotalPrice:          r.TotalPrice,
		CreatedAt:           r.CreatedAt,
	}
	for _, line := range r.Lines {
		resp.Lines = append(resp.Lines, ReceiptLineResponse{
			LineID:     line.LineID.String(),
			LineNo:     line.LineNo,
			MaterialID: line.MaterialID.String(),
			PoLineID:   line.POLineID.String(),
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
		})
	}
	return resp
}

// StockRow is one material/lot availability row.
type StockRow struct {
	MaterialID string         `json:"materialId"`
	LotCode    string         `json:"lotCode"`
	Quantity   types.Quantity `json:"quantity"`
	Issue      types.Quantity `json:"issue"`
	Remain     types.Quantity `json:"remain"`
	Price      types.Money    `json:"price"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AvailabilityResponse is a per-material availability total.
type AvailabilityResponse struct {
	MaterialID  string         `json:"materialId"`
	WarehouseID string         `json:"warehouseId"`
	Available   types.Quantity `json:"available"`
}
