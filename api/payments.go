package api

import (
	"net/http"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/service/payment"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
}

type checkoutRequest struct {
	BookingCode string `json:"booking_code"`
}

func NewPaymentHandler(service payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/stripe/checkout", h.checkout)
	router.GET("/stripe/success", h.success)
	router.GET("/stripe/cancel", h.cancel)
}

func (h *PaymentHandler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation(err.Error()))
		return
	}

	result, err := h.service.CreateCheckout(c.Request.Context(), req.BookingCode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) success(c *gin.Context) {
	result, err := h.service.HandleSuccess(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) cancel(c *gin.Context) {
	result, err := h.service.HandleCancel(c.Request.Context(), c.Query("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
