package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/lot"
	"stockpit/internal/transport/http/dto"
	"stockpit/pkg/logger"
)

// StockHandler serves the read-side stock views under /v1/stock.
type StockHandler struct {
	BaseHandler
	lots *lot.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(lots *lot.Service) *StockHandler {
	return &StockHandler{lots: lots}
}

// Register mounts the routes.
func (h *StockHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/stock", h.Stock)
	rg.GET("/stock/availability", h.Availability)
	rg.GET("/stock/export", h.Export)
}

// Stock lists live lots for a warehouse, optionally narrowed to one material.
func (h *StockHandler) Stock(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, err := h.WarehouseID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	lots, err := h.listLots(c, companyID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	rows := make([]dto.StockRow, 0, len(lots))
	for _, l := range lots {
		rows = append(rows, dto.StockRow{
			MaterialID: l.MaterialID.String(),
			LotCode:    l.LotCode,
			Quantity:   l.Quantity,
			Issue:      l.Issue,
			Remain:     l.Remain,
			Price:      l.Price,
			CreatedAt:  l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

// Availability returns the summed remain for one material in one warehouse.
func (h *StockHandler) Availability(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, err := h.WarehouseID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	materialID, err := h.ParseOptionalID(c, "materialId")
	if err != nil {
		h.Error(c, err)
		return
	}
	if id.IsNil(materialID) {
		h.Error(c, apperror.NewInvalidInput("materialId is required"))
		return
	}

	available, err := h.lots.Availability(c.Request.Context(), companyID, warehouseID, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AvailabilityResponse{
		MaterialID:  materialID.String(),
		WarehouseID: warehouseID.String(),
		Available:   available,
	})
}

// Export streams the current stock as an XLSX workbook.
func (h *StockHandler) Export(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, err := h.WarehouseID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	lots, err := h.listLots(c, companyID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn(c.Request.Context(), "closing workbook", "error", err)
		}
	}()

	const sheet = "Stock"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Lot code", "Material", "Quantity", "Issued", "Remain", "Unit price", "Received at"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			h.Error(c, apperror.NewInternal(err))
			return
		}
	}

	for i, l := range lots {
		row := []any{
			l.LotCode,
			l.MaterialID.String(),
			l.Quantity.String(),
			l.Issue.String(),
			l.Remain.String(),
			l.Price.String(),
			l.CreatedAt.Format(time.RFC3339),
		}
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				h.Error(c, apperror.NewInternal(err))
				return
			}
		}
	}

	filename := fmt.Sprintf("stock-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		logger.Error(c.Request.Context(), "writing workbook", "error", err)
	}
}

func (h *StockHandler) listLots(c *gin.Context, companyID, warehouseID id.ID) ([]*lot.Lot, error) {
	materialID, err := h.ParseOptionalID(c, "materialId")
	if err != nil {
		return nil, err
	}
	if !id.IsNil(materialID) {
		return h.lots.LotsByMaterial(c.Request.Context(), companyID, warehouseID, materialID)
	}
	return h.lots.LotsByWarehouse(c.Request.Context(), companyID, warehouseID)
}
