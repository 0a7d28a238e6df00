package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/purchaseorder"
	"stockpit/internal/domain/receipt"
	"stockpit/internal/transport/http/dto"
)

// ReceiptHandler serves /v1/receipts.
type ReceiptHandler struct {
	BaseHandler
	svc    *receipt.Service
	orders *purchaseorder.Service
}

// NewReceiptHandler creates a new receipt handler.
func NewReceiptHandler(svc *receipt.Service, orders *purchaseorder.Service) *ReceiptHandler {
	return &ReceiptHandler{svc: svc, orders: orders}
}

// Register mounts the routes.
func (h *ReceiptHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/receipts", h.Create)
	rg.GET("/receipts", h.List)
	rg.GET("/receipts/:id", h.Get)
	rg.PUT("/receipts/:id", h.Replace)
	rg.DELETE("/receipts/:id", h.Delete)
}

// Create receives goods against a purchase order.
func (h *ReceiptHandler) Create(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreateReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := h.createInput(c, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), companyID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewReceiptResponse(rec, h.orderNumber(c, companyID, rec.PurchaseOrderID)))
}

// Get returns one receipt with lines.
func (h *ReceiptHandler) Get(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	receiptID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), companyID, receiptID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewReceiptResponse(rec, h.orderNumber(c, companyID, rec.PurchaseOrderID)))
}

// List returns receipt headers.
func (h *ReceiptHandler) List(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	poID, err := h.ParseOptionalID(c, "purchaseOrderId")
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, err := h.ParseOptionalID(c, "warehouseId")
	if err != nil {
		h.Error(c, err)
		return
	}

	receipts, err := h.svc.List(c.Request.Context(), companyID, receipt.ListFilter{
		PurchaseOrderID: poID,
		WarehouseID:     warehouseID,
		Limit:           h.ParseIntQuery(c, "limit", 50),
		Offset:          h.ParseIntQuery(c, "offset", 0),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.ReceiptResponse, 0, len(receipts))
	for _, rec := range receipts {
		items = append(items, dto.NewReceiptResponse(rec, ""))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Replace swaps a receipt's lines wholesale.
func (h *ReceiptHandler) Replace(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	receiptID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReplaceReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := parseReceiptLines(req.Lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.svc.Replace(c.Request.Context(), companyID, receiptID, lines)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewReceiptResponse(rec, h.orderNumber(c, companyID, rec.PurchaseOrderID)))
}

// Delete reverses a receipt.
func (h *ReceiptHandler) Delete(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	receiptID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), companyID, receiptID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReceiptHandler) createInput(c *gin.Context, req dto.CreateReceiptRequest) (receipt.CreateInput, error) {
	poID, err := id.Parse(req.PurchaseOrderID)
	if err != nil {
		return receipt.CreateInput{}, apperror.NewInvalidInput("invalid purchase order id").WithDetail("field", "purchaseOrderId")
	}

	var warehouseID id.ID
	if req.WarehouseID != "" {
		warehouseID, err = id.Parse(req.WarehouseID)
		if err != nil {
			return receipt.CreateInput{}, apperror.NewInvalidInput("invalid warehouse id").WithDetail("field", "warehouseId")
		}
	} else if warehouseID, err = h.WarehouseID(c); err != nil {
		return receipt.CreateInput{}, err
	}

	lines, err := parseReceiptLines(req.Lines)
	if err != nil {
		return receipt.CreateInput{}, err
	}

	return receipt.CreateInput{
		PurchaseOrderID: poID,
		WarehouseID:     warehouseID,
		ReceivedAt:      req.ReceivedAt,
		Lines:           lines,
	}, nil
}

// orderNumber resolves the order number for response shaping; a lookup
// failure degrades to an empty field rather than failing the request.
func (h *ReceiptHandler) orderNumber(c *gin.Context, companyID, poID id.ID) string {
	po, err := h.orders.Get(c.Request.Context(), companyID, poID)
	if err != nil {
		return ""
	}
	return po.Number
}

func parseReceiptLines(in []dto.ReceiptLineRequest) ([]receipt.LineInput, error) {
	lines := make([]receipt.LineInput, 0, len(in))
	for _, line := range in {
		materialID, err := id.Parse(line.MaterialID)
		if err != nil {
			return nil, apperror.NewInvalidInput("invalid material id").WithDetail("field", "materialId")
		}
		var poLineID id.ID
		if line.PoLineID != "" {
			poLineID, err = id.Parse(line.PoLineID)
			if err != nil {
				return nil, apperror.NewInvalidInput("invalid order line id").WithDetail("field", "poLineId")
			}
		}
		lines = append(lines, receipt.LineInput{
			MaterialID: materialID,
			POLineID:   poLineID,
			Quantity:   line.Quantity,
		})
	}
	return lines, nil
}
