// internal/adapters/http/router.go
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(h *CheckoutHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	router.POST("/admin/config/reload", h.ReloadConfig)

	checkout := router.Group("/checkout")
	{
		checkout.POST("", h.Start)
		checkout.GET("/:id", h.Status)
		checkout.PATCH("/:id/delivery-mode", h.SetDeliveryMode)
		checkout.PATCH("/:id/customer", h.UpdateCustomer)
		checkout.PATCH("/:id/postal-code", h.SetPostalCode)
		checkout.PATCH("/:id/address", h.UpdateAddress)
		checkout.PATCH("/:id/payment", h.SetPayment)
		checkout.PATCH("/:id/notes", h.SetNotes)
		checkout.GET("/:id/preview", h.Preview)
		checkout.POST("/:id/dispatch", h.Dispatch)
		checkout.DELETE("/:id", h.Abandon)
	}

	return router
}
