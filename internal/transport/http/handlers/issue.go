package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/domain/issue"
	"stockpit/internal/transport/http/dto"
)

// IssueHandler serves /v1/issues.
type IssueHandler struct {
	BaseHandler
	svc *issue.Service
}

// NewIssueHandler creates a new issue handler.
func NewIssueHandler(svc *issue.Service) *IssueHandler {
	return &IssueHandler{svc: svc}
}

// Register mounts the routes.
func (h *IssueHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/issues", h.Create)
	rg.GET("/issues", h.List)
	rg.GET("/issues/:id", h.Get)
}

// Create issues stock against a withdrawal request.
func (h *IssueHandler) Create(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreateIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	requestID, err := id.Parse(req.RequestID)
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid request id").WithDetail("field", "requestId"))
		return
	}

	doc, err := h.svc.Create(c.Request.Context(), companyID, requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Get returns one issue with lines.
func (h *IssueHandler) Get(c *gin.Context) {
	companyID, err := h.CompanyID(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	issueID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), companyID, issueID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// List returns issue headers.
func (h *IssueHandler) List(c *gin.Context) {
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
	requestID, err := h.ParseOptionalID(c, "requestId")
	if err != nil {
		h.Error(c, err)
		return
	}

	issues, err := h.svc.List(c.Request.Context(), companyID, issue.ListFilter{
		WarehouseID: warehouseID,
		RequestID:   requestID,
		Limit:       h.ParseIntQuery(c, "limit", 50),
		Offset:      h.ParseIntQuery(c, "offset", 0),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": issues})
}
