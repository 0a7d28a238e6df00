// Package handlers provides the HTTP handlers for the /v1 API.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/scope"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// BindJSON binds the JSON request body, registering a validation error
// on failure.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers the error on the gin context and aborts; the error
// middleware renders the response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// CompanyID returns the tenant resolved by the scope middleware.
func (h *BaseHandler) CompanyID(c *gin.Context) (id.ID, error) {
	return scope.CompanyID(c.Request.Context())
}

// WarehouseID resolves the warehouse for the request: path/query
// parameter first, then the scope header.
func (h *BaseHandler) WarehouseID(c *gin.Context) (id.ID, error) {
	if raw := c.Query("warehouseId"); raw != "" {
		warehouseID, err := id.Parse(raw)
		if err != nil {
			return id.Nil(), apperror.NewInvalidInput("invalid warehouse id").WithDetail("param", "warehouseId")
		}
		return warehouseID, nil
	}
	if warehouseID := scope.OptionalWarehouseID(c.Request.Context()); !id.IsNil(warehouseID) {
		return warehouseID, nil
	}
	return id.Nil(), apperror.NewMissingWarehouse()
}

// ParseID parses a path parameter as an id, registering InvalidInput on
// failure.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid id").WithDetail("param", param))
		return id.Nil(), false
	}
	return parsed, true
}

// ParseOptionalID parses an optional query parameter as an id; empty
// values return the nil id.
func (h *BaseHandler) ParseOptionalID(c *gin.Context, key string) (id.ID, error) {
	raw := c.Query(key)
	if raw == "" {
		return id.Nil(), nil
	}
	parsed, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewInvalidInput("invalid id").WithDetail("param", key)
	}
	return parsed, nil
}

// ParseIntQuery parses an integer query parameter with a default.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
