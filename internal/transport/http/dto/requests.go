// Package dto defines the HTTP request and response shapes.
package dto

import (
	"time"

	"stockpit/internal/core/types"
)

// OrderLineRequest is one ordered position.
type OrderLineRequest struct {
	MaterialID string         `json:"materialId" binding:"required"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	UnitPrice  string         `json:"unitPrice" binding:"required"`
	Unit       string         `json:"unit"`
}

// CreatePurchaseOrderRequest creates a draft purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID string             `json:"supplierId" binding:"required"`
	Lines      []OrderLineRequest `json:"lines" binding:"required"`
}

// ReplaceOrderLinesRequest swaps the full table part of an order.
type ReplaceOrderLinesRequest struct {
	Lines []OrderLineRequest `json:"lines" binding:"required"`
}

// ReceiptLineRequest is one received position. PoLineID is optional.
type ReceiptLineRequest struct {
	MaterialID string         `json:"materialId" binding:"required"`
	PoLineID   string         `json:"poLineId"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
}

// CreateReceiptRequest receives goods against a purchase order.
type CreateReceiptRequest struct {
	PurchaseOrderID string               `json:"purchaseOrderId" binding:"required"`
	WarehouseID     string               `json:"warehouseId"`
	ReceivedAt      time.Time            `json:"receivedAt"`
	Lines           []ReceiptLineRequest `json:"lines" binding:"required"`
}

// ReplaceReceiptRequest swaps a receipt's lines wholesale.
type ReplaceReceiptRequest struct {
	Lines []ReceiptLineRequest `json:"lines" binding:"required"`
}

// WithdrawalLineRequest is one requested position.
type WithdrawalLineRequest struct {
	MaterialID string         `json:"materialId" binding:"required"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
}

// CreateWithdrawalRequest opens a withdrawal request.
type CreateWithdrawalRequest struct {
	WarehouseID string                  `json:"warehouseId"`
	Requester   string                  `json:"requester"`
	Lines       []WithdrawalLineRequest `json:"lines" binding:"required"`
}

// CreateIssueRequest issues stock against a withdrawal request.
type CreateIssueRequest struct {
	RequestID string `json:"requestId" binding:"required"`
}

// CreateAdjustmentRequest applies a signed stock correction.
type CreateAdjustmentRequest struct {
	WarehouseID string         `json:"warehouseId"`
	MaterialID  string         `json:"materialId" binding:"required"`
	Quantity    types.Quantity `json:"quantity" binding:"required"`
	Reason      string         `json:"reason" binding:"required"`
}

// CreateMaterialRequest adds a material to the catalog.
type CreateMaterialRequest struct {
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Unit  string `json:"unit" binding:"required"`
	Price string `json:"price"`
}

// CreateWarehouseRequest adds a warehouse to the catalog.
type CreateWarehouseRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}
