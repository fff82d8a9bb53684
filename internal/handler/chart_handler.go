package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/internal/service"
)

// ChartHandler отдает наборы данных для графиков
type ChartHandler struct {
	chartService *service.ChartService
}

// NewChartHandler создает обработчик графиков
func NewChartHandler(chartService *service.ChartService) *ChartHandler {
	return &ChartHandler{chartService: chartService}
}

// GetChart возвращает график типа overallAccuracy, accuracyOverTime или sweeps
// GET /api/charts/:type?year=&theme=
func (h *ChartHandler) GetChart(c *gin.Context) {
	chart, err := h.chartService.Graph(c.Request.Context(), c.Param("type"), c.Query("year"), c.Query("theme"))
	if err != nil {
		handleError(c, "ChartHandler", err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

// ListChartTypes перечисляет доступные типы графиков
func (h *ChartHandler) ListChartTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": service.ChartTypes})
}
