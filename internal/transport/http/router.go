// Package http wires the gin engine: middleware chain, scoped API group
// and operational endpoints.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockpit/internal/transport/http/handlers"
	"stockpit/internal/transport/http/middleware"
)

// RouterConfig carries everything the router needs that is not a handler.
type RouterConfig struct {
	JWTSecret string
	// Debug switches gin out of release mode.
	Debug bool
}

// Handlers groups the route handlers mounted under /v1.
type Handlers struct {
	PurchaseOrders *handlers.PurchaseOrderHandler
	Receipts       *handlers.ReceiptHandler
	Withdrawals    *handlers.WithdrawalHandler
	Issues         *handlers.IssueHandler
	Adjustments    *handlers.AdjustmentHandler
	Stock          *handlers.StockHandler
	Catalog        *handlers.CatalogHandler
	Health         *handlers.HealthHandler
}

// NewRouter builds the gin engine with the full middleware chain.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.ErrorHandler(),
	)

	h.Health.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(middleware.CompanyScope(cfg.JWTSecret))

	h.Catalog.Register(v1)
	h.PurchaseOrders.Register(v1)
	h.Receipts.Register(v1)
	h.Withdrawals.Register(v1)
	h.Issues.Register(v1)
	h.Adjustments.Register(v1)
	h.Stock.Register(v1)

	return r
}
