package api

import (
	"net/http"

	"github.com/awesome-academy/booking-tour/internal/apperr"
	"github.com/gin-gonic/gin"
)

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
	case apperr.IsNotFound(err):
		status = http.StatusNotFound
	case apperr.IsSettlement(err):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
