package api

import (
	"net/http"
	"strconv"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/service/tours"
	"github.com/gin-gonic/gin"
)

type TourHandler struct {
	service tours.TourUseCase
}

func NewTourHandler(service tours.TourUseCase) *TourHandler {
	return &TourHandler{service: service}
}

func (h *TourHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
}

func (h *TourHandler) list(c *gin.Context) {
	departures, err := h.service.ListDepartures(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, departures)
}

func (h *TourHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, apperr.Validation("invalid id"))
		return
	}
	departure, err := h.service.GetDeparture(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, departure)
}
