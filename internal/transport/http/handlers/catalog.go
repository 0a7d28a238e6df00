package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/types"
	"stockpit/internal/domain/material"
	"stockpit/internal/domain/warehouse"
	"stockpit/internal/transport/http/dto"
)

// CatalogHandler serves the material and warehouse catalogs.
type CatalogHandler struct {
	BaseHandler
	materials  *material.Service
	warehouses *warehouse.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(materials *material.Service, warehouses *warehouse.Service) *CatalogHandler {
	return &CatalogHandler{materials: materials, warehouses: warehouses}
}

// Register mounts the routes.
func (h *CatalogHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/materials", h.CreateMaterial)
	rg.GET("/materials", h.ListMaterials)
	rg.GET("/materials/:id", h.GetMaterial)

	rg.POST("/warehouses", h.CreateWarehouse)
	rg.GET("/warehouses", h.ListWarehouses)
	rg.GET("/warehouses/:id", h.GetWarehouse)
}

// CreateMaterial adds a material to the catalog.
func (h *CatalogHandler) CreateMaterial(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	price := types.ZeroMoney()
	if req.Price != "" {
		price, err = types.NewMoneyFromString(req.Price)
		if err != nil {
			h.Error(c, apperror.NewInvalidInput("invalid price").WithDetail("field", "price"))
			return
		}
	}

	m := material.NewMaterial(companyID, req.Code, req.Name, req.Unit, price)
	if err := h.materials.Create(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GetMaterial returns one material.
func (h *CatalogHandler) GetMaterial(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.materials.Get(c.Request.Context(), companyID, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ListMaterials returns the material catalog.
func (h *CatalogHandler) ListMaterials(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	if code := c.Query("code"); code != "" {
		m, err := h.materials.GetByCode(c.Request.Context(), companyID, code)
		if err != nil {
			h.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": []*material.Material{m}})
		return
	}

	items, err := h.materials.List(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateWarehouse adds a warehouse to the catalog.
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	w := warehouse.NewWarehouse(companyID, req.Code, req.Name)
	w.Address = req.Address
	if err := h.warehouses.Create(c.Request.Context(), w); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// GetWarehouse returns one warehouse.
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	w, err := h.warehouses.Get(c.Request.Context(), companyID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListWarehouses returns the warehouse catalog.
func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.warehouses.List(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
