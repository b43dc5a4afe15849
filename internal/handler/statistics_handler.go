package handler

import (
	"net/http"

	"facture/internal/service"
	"facture/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard", h.GetDashboard)
}

// @Summary      Get Dashboard Statistics
// @Description  Revenue, net profit, monthly series and top clients/products of a year
// @Tags         Statistics
// @Produce      json
// @Param        year  query     int  false  "Year (default current year)"
// @Success      200   {object}  response.Response{data=service.DashboardResponse}
// @Failure      400   {object}  response.Response "Invalid year"
// @Failure      401   {object}  response.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /api/dashboard [get]
func (h *StatisticsHandler) GetDashboard(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}

	dashboard, err := h.statisticsService.GetDashboard(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}
