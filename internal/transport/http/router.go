package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitRoutes registers all sell-order endpoints on the given Gin engine.
func InitRoutes(e *gin.Engine, orders OrderManager, purchaser Purchaser, logger *zap.Logger) {
	handler := NewOrdersHandler(orders, purchaser, logger)

	e.Use(RequestLogger(logger))

	e.POST("/orders", handler.handleCreateOrder)
	e.GET("/orders", handler.handleListOrders)
	e.GET("/orders/:id", handler.handleGetOrder)
	e.DELETE("/orders/:id", handler.handleDeleteOrder)
	e.POST("/orders/:id/purchase", handler.handlePurchaseOrder)
	e.GET("/orders/:id/purchases", handler.handleListPurchases)

	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RequestLogger logs basic request details and latency.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
