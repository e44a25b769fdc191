package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocerycalc/backend/config"
)

// SetupRouter creates and configures the Gin router. metrics may be nil.
func SetupRouter(cfg *config.Config, handler *Handler, metrics http.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	if cfg.Metrics.Enabled && metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		catalog := v1.Group("/catalog")
		{
			catalog.GET("", handler.GetCatalog)
			catalog.POST("/sync", handler.SyncCatalog)
			catalog.GET("/export", handler.ExportCatalog)

			products := catalog.Group("/products")
			{
				products.GET("", handler.ListProducts)
				products.POST("", handler.CreateProduct)
				products.PUT("/:id", handler.UpdateProduct)
				products.DELETE("/:id", handler.DeleteProduct)
			}
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handler.CreateSession)
			sessions.DELETE("/:id", handler.EndSession)
			sessions.POST("/:id/scan", handler.Scan)
			sessions.GET("/:id/cart", handler.GetCart)
			sessions.POST("/:id/cart/confirm", handler.ConfirmScan)
			sessions.POST("/:id/cart/lines/increment", handler.IncrementLine)
			sessions.POST("/:id/cart/lines/decrement", handler.DecrementLine)
			sessions.POST("/:id/cart/lines/remove", handler.RemoveLine)
		}
	}

	return router
}
