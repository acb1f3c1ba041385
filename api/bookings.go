package api

import (
	"net/http"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/awesome-academy/booking-tour/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	TourDepartureID int64  `json:"tour_departure_id"`
	NumAdults       int    `json:"num_adults"`
	NumChildren     int    `json:"num_children"`
	ContactName     string `json:"contact_name"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`
	Notes           string `json:"notes"`
}

type bookingResponse struct {
	Code            string `json:"code"`
	Status          string `json:"status"`
	NumAdults       int    `json:"num_adults"`
	NumChildren     int    `json:"num_children"`
	SubTotalCents   int64  `json:"sub_total_cents"`
	DiscountCents   int64  `json:"discount_cents"`
	FinalTotalCents int64  `json:"final_total_cents"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation(err.Error()))
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		TourDepartureID: req.TourDepartureID,
		NumAdults:       req.NumAdults,
		NumChildren:     req.NumChildren,
		ContactName:     req.ContactName,
		ContactEmail:    req.ContactEmail,
		ContactPhone:    req.ContactPhone,
		Notes:           req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bookingResponse{
		Code:            created.Code,
		Status:          string(created.Status),
		NumAdults:       created.NumAdults,
		NumChildren:     created.NumChildren,
		SubTotalCents:   created.SubTotalCents,
		DiscountCents:   created.DiscountCents,
		FinalTotalCents: created.FinalTotalCents,
	})
}
