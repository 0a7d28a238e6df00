package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/adjustment"
	"stockpit/internal/transport/http/dto"
)

// AdjustmentHandler serves /v1/adjustments.
type AdjustmentHandler struct {
	BaseHandler
	svc *adjustment.Service
}

// NewAdjustmentHandler creates a new adjustment handler.
func NewAdjustmentHandler(svc *adjustment.Service) *AdjustmentHandler {
	return &AdjustmentHandler{svc: svc}
}

// Register mounts the routes.
func (h *AdjustmentHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/adjustments", h.Create)
	rg.GET("/adjustments", h.List)
	rg.GET("/adjustments/:id", h.Get)
}

// Create applies a signed stock correction.
func (h *AdjustmentHandler) Create(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreateAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	materialID, err := id.Parse(req.MaterialID)
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid material id").WithDetail("field", "materialId"))
		return
	}

	var warehouseID id.ID
	if req.WarehouseID != "" {
		warehouseID, err = id.Parse(req.WarehouseID)
		if err != nil {
			h.Error(c, apperror.NewInvalidInput("invalid warehouse id").WithDetail("field", "warehouseId"))
			return
		}
	} else if warehouseID, err = h.WarehouseID(c); err != nil {
		h.Error(c, err)
		return
	}

	a := adjustment.NewStockAdjustment(companyID, warehouseID, materialID, req.Quantity, req.Reason)
	if err := h.svc.Create(c.Request.Context(), a); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// Get returns one adjustment.
func (h *AdjustmentHandler) Get(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	adjustmentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.Get(c.Request.Context(), companyID, adjustmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// List returns the adjustment audit trail.
func (h *AdjustmentHandler) List(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	warehouseID, err := h.ParseOptionalID(c, "warehouseId")
	if err != nil {
		h.Error(c, err)
		return
	}
	materialID, err := h.ParseOptionalID(c, "materialId")
	if err != nil {
		h.Error(c, err)
		return
	}

	rows, err := h.svc.List(c.Request.Context(), companyID, adjustment.ListFilter{
		WarehouseID: warehouseID,
		MaterialID:  materialID,
		Limit:       h.ParseIntQuery(c, "limit", 50),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}
