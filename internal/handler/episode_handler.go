package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/handler/dto"
	"github.com/yourusername/sof-stats/internal/handler/helper"
	"github.com/yourusername/sof-stats/internal/service"
)

// EpisodeHandler обрабатывает запросы, связанные с эпизодами
type EpisodeHandler struct {
	episodeService *service.EpisodeService
}

// NewEpisodeHandler создает обработчик эпизодов
func NewEpisodeHandler(episodeService *service.EpisodeService) *EpisodeHandler {
	return &EpisodeHandler{episodeService: episodeService}
}

// ListEpisodes возвращает эпизоды, новые первыми
// GET /api/episodes?start=&end=&order=asc|desc
func (h *EpisodeHandler) ListEpisodes(c *gin.Context) {
	dateRange, err := helper.DateRangeQuery(c)
	if err != nil {
		handleError(c, "EpisodeHandler", err)
		return
	}
	desc := c.DefaultQuery("order", "desc") != "asc"

	episodes, err := h.episodeService.ListEpisodes(c.Request.Context(), dateRange, desc)
	if err != nil {
		handleError(c, "EpisodeHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"episodes": dto.NewListEpisodeResponse(episodes),
		"total":    len(episodes),
	})
}

// GetEpisode возвращает эпизод по номеру
// GET /api/episodes/:num
func (h *EpisodeHandler) GetEpisode(c *gin.Context) {
	epNum := c.MustGet("epNum").(int)

	episode, err := h.episodeService.GetEpisode(c.Request.Context(), epNum)
	if err != nil {
		handleError(c, "EpisodeHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEpisodeResponse(episode))
}

// ListThemes возвращает темы эпизодов
func (h *EpisodeHandler) ListThemes(c *gin.Context) {
	themes, err := h.episodeService.ListThemes(c.Request.Context())
	if err != nil {
		handleError(c, "EpisodeHandler", err)
		return
	}
	if themes == nil {
		themes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"themes": themes})
}

// ListYears возвращает годы, за которые есть эпизоды
func (h *EpisodeHandler) ListYears(c *gin.Context) {
	years, err := h.episodeService.ListYears(c.Request.Context())
	if err != nil {
		handleError(c, "EpisodeHandler", err)
		return
	}
	if years == nil {
		years = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

// AddEpisode добавляет эпизод вместе с результатами
// POST /api/admin/episodes
func (h *EpisodeHandler) AddEpisode(c *gin.Context) {
	var req dto.AddEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	date, err := entity.ParseDate(req.Date)
	if err != nil {
		handleError(c, "EpisodeHandler", err)
		return
	}

	input := service.AddEpisodeInput{
		EpNum:     req.EpNum,
		Date:      date,
		NumItems:  req.NumItems,
		Theme:     req.Theme,
		Presenter: req.Presenter,
		Rogues:    req.Rogues,
		Guests:    make([]service.GuestInput, 0, len(req.Guests)),
	}
	for _, g := range req.Guests {
		input.Guests = append(input.Guests, service.GuestInput{Name: g.Name, Label: g.Result})
	}

	result, err := h.episodeService.AddEpisode(c.Request.Context(), input)
	if err != nil {
		handleError(c, "EpisodeHandler", err)
		return
	}

	log.Printf("[EpisodeHandler] Администратор %s добавил эпизод #%d", c.GetString("username"), result.Episode.EpNum)
	c.JSON(http.StatusCreated, dto.NewAddEpisodeResponse(result.Episode, result.Results, result.Sweep))
}
