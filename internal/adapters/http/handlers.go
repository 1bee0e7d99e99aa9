// internal/adapters/http/handlers.go
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pizzaria/checkout-backend/internal/application"
	"github.com/pizzaria/checkout-backend/internal/domain"
	"github.com/pizzaria/checkout-backend/internal/logger"
)

type CheckoutHandler struct {
	svc *application.CheckoutService
	log *logger.Logger
}

func NewCheckoutHandler(svc *application.CheckoutService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, log: log}
}

func (h *CheckoutHandler) Start(c *gin.Context) {
	var cart domain.CartState
	if err := c.ShouldBindJSON(&cart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.svc.StartCheckout(c.Request.Context(), cart)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	status, err := h.svc.Status(id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

func (h *CheckoutHandler) Status(c *gin.Context) {
	status, err := h.svc.Status(c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *CheckoutHandler) SetDeliveryMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	mode, err := domain.ParseDeliveryMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SetDeliveryMode(c.Param("id"), mode); err != nil {
		h.renderError(c, err)
		return
	}
	h.Status(c)
}

func (h *CheckoutHandler) UpdateCustomer(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.UpdateCustomer(c.Param("id"), req.Name, req.Phone); err != nil {
		h.renderError(c, err)
		return
	}
	h.Status(c)
}

func (h *CheckoutHandler) SetPostalCode(c *gin.Context) {
	var req struct {
		CEP string `json:"cep"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.SetPostalCode(c.Param("id"), req.CEP); err != nil {
		h.renderError(c, err)
		return
	}
	h.Status(c)
}

func (h *CheckoutHandler) UpdateAddress(c *gin.Context) {
	var req struct {
		HouseNumber   string `json:"house_number"`
		Complement    string `json:"complement"`
		DeliveryNotes string `json:"delivery_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.UpdateAddress(c.Param("id"), req.HouseNumber, req.Complement, req.DeliveryNotes); err != nil {
		h.renderError(c, err)
		return
	}
	h.Status(c)
}

func (h *CheckoutHandler) SetPayment(c *gin.Context) {
	var req struct {
		Method string `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	method, err := domain.ParsePaymentMethod(req.Method)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SetPayment(c.Param("id"), method); err != nil {
		h.renderError(c, err)
		return
	}
	h.Status(c)
}

func (h *CheckoutHandler) SetNotes(c *gin.Context) {
	var req struct {
		OrderNotes string `json:"order_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.SetNotes(c.Param("id"), req.OrderNotes); err != nil {
		h.renderError(c, err)
		return
	}
	h.Status(c)
}

func (h *CheckoutHandler) Preview(c *gin.Context) {
	text, err := h.svc.Preview(c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *CheckoutHandler) Dispatch(c *gin.Context) {
	link, err := h.svc.Dispatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

// ReloadConfig is the admin hook for picking up changed store settings
// without a restart.
func (h *CheckoutHandler) ReloadConfig(c *gin.Context) {
	cfg := h.svc.ReloadConfig(c.Request.Context())
	c.JSON(http.StatusOK, cfg)
}

func (h *CheckoutHandler) Abandon(c *gin.Context) {
	h.svc.Abandon(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// renderError maps service errors onto HTTP statuses. A blocked dispatch
// carries the gate breakdown so the client can point at what is missing.
func (h *CheckoutHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDispatchBlocked):
		status, sErr := h.svc.Status(c.Param("id"))
		if sErr != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": status})
	default:
		h.log.Warnw("checkout request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
