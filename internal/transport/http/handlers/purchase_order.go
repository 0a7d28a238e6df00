package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/purchaseorder"
	"stockpit/internal/transport/http/dto"
)

// PurchaseOrderHandler serves /v1/purchase-orders.
type PurchaseOrderHandler struct {
	BaseHandler
	svc *purchaseorder.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(svc *purchaseorder.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{svc: svc}
}

// Register mounts the routes.
func (h *PurchaseOrderHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/purchase-orders", h.Create)
	rg.GET("/purchase-orders", h.List)
	rg.GET("/purchase-orders/:id", h.Get)
	rg.PUT("/purchase-orders/:id/lines", h.ReplaceLines)
	rg.POST("/purchase-orders/:id/send", h.MarkSent)
	rg.POST("/purchase-orders/:id/confirm", h.MarkConfirmed)
	rg.POST("/purchase-orders/:id/cancel", h.Cancel)
}

// Create creates a draft purchase order.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplierID, err := id.Parse(req.SupplierID)
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid supplier id").WithDetail("field", "supplierId"))
		return
	}

	po := purchaseorder.NewPurchaseOrder(companyID, supplierID)
	for _, line := range req.Lines {
		materialID, price, err := parseOrderLine(line)
		if err != nil {
			h.Error(c, err)
			return
		}
		po.AddLine(materialID, line.Quantity, price, line.Unit)
	}

	if err := h.svc.Create(c.Request.Context(), po); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

// Get returns one order with lines.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.svc.Get(c.Request.Context(), companyID, poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// List returns order headers.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	supplierID, err := h.ParseOptionalID(c, "supplierId")
	if err != nil {
		h.Error(c, err)
		return
	}

	filter := purchaseorder.ListFilter{
		SupplierID: supplierID,
		Status:     purchaseorder.Status(c.Query("status")),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	orders, err := h.svc.List(c.Request.Context(), companyID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": orders})
}

// ReplaceLines swaps the order's table part.
func (h *PurchaseOrderHandler) ReplaceLines(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReplaceOrderLinesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines := make([]purchaseorder.Line, 0, len(req.Lines))
	for _, line := range req.Lines {
		materialID, price, err := parseOrderLine(line)
		if err != nil {
			h.Error(c, err)
			return
		}
		lines = append(lines, purchaseorder.Line{
			MaterialID: materialID,
			Quantity:   line.Quantity,
			UnitPrice:  price,
			Unit:       line.Unit,
		})
	}

	if err := h.svc.ReplaceLines(c.Request.Context(), companyID, poID, lines); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkSent moves a draft order to sent.
func (h *PurchaseOrderHandler) MarkSent(c *gin.Context) {
	h.transition(c, h.svc.MarkSent)
}

// MarkConfirmed moves a sent order to confirmed.
func (h *PurchaseOrderHandler) MarkConfirmed(c *gin.Context) {
	h.transition(c, h.svc.MarkConfirmed)
}

// Cancel cancels an order.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.Cancel)
}

func (h *PurchaseOrderHandler) transition(c *gin.Context, fn func(ctx context.Context, companyID, poID id.ID) error) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), companyID, poID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseOrderLine(line dto.OrderLineRequest) (id.ID, types.Money, error) {
	materialID, err := id.Parse(line.MaterialID)
	if err != nil {
		return id.Nil(), types.ZeroMoney(), apperror.NewInvalidInput("invalid material id").WithDetail("field", "materialId")
	}
	price, err := types.NewMoneyFromString(line.UnitPrice)
	if err != nil {
		return id.Nil(), types.ZeroMoney(), apperror.NewInvalidInput("invalid unit price").WithDetail("field", "unitPrice")
	}
	return materialID, price, nil
}
