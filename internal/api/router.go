package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, ginMode string) *gin.Engine {
	gin.SetMode(ginMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	router.GET("/health", handler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/checkout", handler.CreateCheckout)
		v1.GET("/sales/:id/status", handler.GetSaleStatus)
	}

	// Provider webhooks. No auth: Mercado Pago is verified by signature
	// when a secret is configured, the others by provider tx id lookup.
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/mercadopago", handler.HandleMercadoPagoWebhook)
		webhooks.POST("/pushinpay", handler.HandlePushinPayWebhook)
		webhooks.POST("/efi", handler.HandleEfiWebhook)
	}

	return router
}
