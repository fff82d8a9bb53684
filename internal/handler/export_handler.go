package handler

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/handler/helper"
	"github.com/yourusername/sof-stats/internal/service"
)

var exportContentTypes = map[string]string{
	service.ExportCSV:  "text/csv; charset=utf-8",
	service.ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ExportHandler выгружает результаты в CSV или Excel
type ExportHandler struct {
	exportService *service.ExportService
}

// NewExportHandler создает обработчик выгрузки
func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// exportRange берет диапазон из year, а явные start/end его уточняют
func exportRange(c *gin.Context) (entity.DateRange, string, error) {
	dateRange, year, err := service.ParseChartYear(c.Query("year"))
	if err != nil {
		return entity.DateRange{}, "", err
	}
	explicit, err := helper.DateRangeQuery(c)
	if err != nil {
		return entity.DateRange{}, "", err
	}
	if !explicit.Start.IsZero() {
		dateRange.Start = explicit.Start
	}
	if !explicit.End.IsZero() {
		dateRange.End = explicit.End
	}
	return dateRange, year, dateRange.Validate()
}

// Export выгружает результаты за период
// GET /api/admin/export?format=xlsx|csv&year=&start=&end=
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.ExportXLSX)
	if err := service.ValidateExportFormat(format); err != nil {
		handleError(c, "ExportHandler", err)
		return
	}
	dateRange, year, err := exportRange(c)
	if err != nil {
		handleError(c, "ExportHandler", err)
		return
	}

	// Собираем файл целиком, чтобы ошибка не оборвала уже начатый ответ
	var buf bytes.Buffer
	if err := h.exportService.Export(c.Request.Context(), &buf, format, dateRange); err != nil {
		handleError(c, "ExportHandler", err)
		return
	}

	filename := fmt.Sprintf("sof_results_%s_%s.%s", year, time.Now().Format(entity.DateLayout), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	log.Printf("[ExportHandler] Выгрузка %s (%d байт) для %s", filename, buf.Len(), c.GetString("username"))
	c.Data(http.StatusOK, exportContentTypes[format], buf.Bytes())
}
