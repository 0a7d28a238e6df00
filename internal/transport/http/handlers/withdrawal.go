package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/withdrawal"
	"stockpit/internal/transport/http/dto"
)

// WithdrawalHandler serves /v1/withdrawal-requests.
type WithdrawalHandler struct {
	BaseHandler
	svc *withdrawal.Service
}

// NewWithdrawalHandler creates a new withdrawal request handler.
func NewWithdrawalHandler(svc *withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

// Register mounts the routes.
func (h *WithdrawalHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/withdrawal-requests", h.Create)
	rg.GET("/withdrawal-requests", h.List)
	rg.GET("/withdrawal-requests/:id", h.Get)
}

// Create opens a withdrawal request.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreateWithdrawalRequest
	if !h.BindJSON(c, &req) {
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

	r := withdrawal.NewRequest(companyID, warehouseID)
	r.Requester = req.Requester
	for _, line := range req.Lines {
		materialID, err := id.Parse(line.MaterialID)
		if err != nil {
			h.Error(c, apperror.NewInvalidInput("invalid material id").WithDetail("field", "materialId"))
			return
		}
		r.AddLine(materialID, line.Quantity)
	}

	if err := h.svc.Create(c.Request.Context(), r); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// Get returns one request with lines.
func (h *WithdrawalHandler) Get(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	r, err := h.svc.Get(c.Request.Context(), companyID, requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// List returns request headers.
func (h *WithdrawalHandler) List(c *gin.Context) {
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

	requests, err := h.svc.List(c.Request.Context(), companyID, withdrawal.ListFilter{
		WarehouseID: warehouseID,
		Status:      withdrawal.Status(c.Query("status")),
		Limit:       h.ParseIntQuery(c, "limit", 50),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": requests})
}
