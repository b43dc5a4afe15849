package handler

import (
	"errors"
	"net/http"
	"strconv"

	"facture/internal/middleware"
	"facture/internal/service"
	"facture/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusOf maps service errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	c.JSON(status, response.Error(status, err.Error()))
}

func badPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

func actor(c *gin.Context) string {
	return c.GetString(middleware.ActorKey)
}

// queryYear reads ?year=, zero when absent.
func queryYear(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid year "+raw))
		return 0, false
	}
	return year, true
}
