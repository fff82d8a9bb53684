package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/handler/dto"
	"github.com/yourusername/sof-stats/internal/handler/helper"
	"github.com/yourusername/sof-stats/internal/service"
	"github.com/yourusername/sof-stats/internal/service/stats"
)

// StatsHandler отдает статистику участников и свипы
type StatsHandler struct {
	statsService       *service.StatsService
	participantService *service.ParticipantService
	episodeService     *service.EpisodeService
}

// NewStatsHandler создает обработчик статистики
func NewStatsHandler(
	statsService *service.StatsService,
	participantService *service.ParticipantService,
	episodeService *service.EpisodeService,
) *StatsHandler {
	return &StatsHandler{
		statsService:       statsService,
		participantService: participantService,
		episodeService:     episodeService,
	}
}

// filterFromQuery собирает фильтр статистики из start, end и theme
func filterFromQuery(c *gin.Context) (stats.Filter, error) {
	dateRange, err := helper.DateRangeQuery(c)
	if err != nil {
		return stats.Filter{}, err
	}
	return stats.Filter{DateRange: dateRange, Theme: service.ParseThemeFilter(c.Query("theme"))}, nil
}

// GetAccuracy общая точность участника
// GET /api/stats/participants/:name/accuracy?start=&end=&theme=
func (h *StatsHandler) GetAccuracy(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}

	name := entity.NormalizeName(c.Param("name"))
	acc, err := h.statsService.OverallAccuracy(c.Request.Context(), name, filter)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.AccuracyResponse{
		Participant:  name,
		Accuracy:     acc.Accuracy,
		NumCorrect:   acc.NumCorrect,
		NumIncorrect: acc.NumIncorrect,
		Filter:       dto.NewFilterResponse(filter.DateRange, filter.Theme),
	})
}

// GetAccuracySeries накопленная точность участника по эпизодам
// GET /api/stats/participants/:name/accuracy/series?start=&end=&theme=
func (h *StatsHandler) GetAccuracySeries(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}

	name := entity.NormalizeName(c.Param("name"))
	points, err := h.statsService.AccuracySeries(c.Request.Context(), name, filter)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSeriesResponse(name, points, filter))
}

// GetAttendance посещаемость участника
// GET /api/stats/participants/:name/attendance?start=&end=
func (h *StatsHandler) GetAttendance(c *gin.Context) {
	dateRange, err := helper.DateRangeQuery(c)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}

	name := entity.NormalizeName(c.Param("name"))
	attendance, err := h.statsService.Attendance(c.Request.Context(), name, dateRange)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.AttendanceResponse{
		Participant: name,
		Attendance:  attendance,
		Filter:      dto.NewFilterResponse(dateRange, ""),
	})
}

// GetSweeps эпизоды, где все ответили правильно (participant) или все ошиблись (presenter)
// GET /api/stats/sweeps?scope=presenter|participant|both&start=&end=
func (h *StatsHandler) GetSweeps(c *gin.Context) {
	scopeParam := c.DefaultQuery("scope", "both")
	scope, err := stats.ParseSweepScope(scopeParam)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}
	dateRange, err := helper.DateRangeQuery(c)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}

	episodes, err := h.statsService.Sweeps(c.Request.Context(), scope, dateRange)
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.SweepsResponse{
		Scope:    scopeParam,
		Episodes: dto.NewListEpisodeResponse(episodes),
		Total:    len(episodes),
	})
}

// GetRogueSummary сводная таблица rogue
func (h *StatsHandler) GetRogueSummary(c *gin.Context) {
	rows, err := h.participantService.RogueSummaries(c.Request.Context())
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rogues": dto.NewRogueSummaryResponse(rows)})
}

// GetGuestSummary сводная таблица гостей
func (h *StatsHandler) GetGuestSummary(c *gin.Context) {
	rows, err := h.participantService.GuestSummaries(c.Request.Context())
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": rows})
}

// GetEpisodeSummary сводная таблица эпизодов
func (h *StatsHandler) GetEpisodeSummary(c *gin.Context) {
	rows, err := h.episodeService.Summaries(c.Request.Context())
	if err != nil {
		handleError(c, "StatsHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"episodes": dto.NewEpisodeSummaryResponse(rows)})
}
