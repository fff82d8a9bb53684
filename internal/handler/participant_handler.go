package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/internal/handler/dto"
	"github.com/yourusername/sof-stats/internal/handler/helper"
	"github.com/yourusername/sof-stats/internal/service"
)

// ParticipantHandler обрабатывает запросы, связанные с участниками
type ParticipantHandler struct {
	participantService *service.ParticipantService
}

// NewParticipantHandler создает обработчик участников
func NewParticipantHandler(participantService *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: participantService}
}

// ListRogues возвращает rogue, опционально только состоявших в составе на дату
// или чей период участия пересекается с диапазоном
// GET /api/participants/rogues?on=&start=&end=
func (h *ParticipantHandler) ListRogues(c *gin.Context) {
	on, err := helper.DateQuery(c, "on")
	if err != nil {
		handleError(c, "ParticipantHandler", err)
		return
	}
	overlaps, err := helper.DateRangeQuery(c)
	if err != nil {
		handleError(c, "ParticipantHandler", err)
		return
	}

	rogues, err := h.participantService.ListRogues(c.Request.Context(), service.RogueQuery{OnDate: on, Overlaps: overlaps})
	if err != nil {
		handleError(c, "ParticipantHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rogues": dto.NewListParticipantResponse(rogues)})
}

// ListGuests возвращает всех гостей
func (h *ParticipantHandler) ListGuests(c *gin.Context) {
	guests, err := h.participantService.ListGuests(c.Request.Context())
	if err != nil {
		handleError(c, "ParticipantHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": dto.NewListParticipantResponse(guests)})
}

// AddParticipant добавляет участника или возвращает существующего с тем же именем
// POST /api/admin/participants
func (h *ParticipantHandler) AddParticipant(c *gin.Context) {
	var req dto.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	start, err := helper.ParseOptionalDate(req.RogueStartDate)
	if err != nil {
		handleError(c, "ParticipantHandler", err)
		return
	}
	end, err := helper.ParseOptionalDate(req.RogueEndDate)
	if err != nil {
		handleError(c, "ParticipantHandler", err)
		return
	}

	participant, err := h.participantService.AddParticipant(c.Request.Context(), service.AddParticipantInput{
		Name:      req.Name,
		IsRogue:   req.IsRogue,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		handleError(c, "ParticipantHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewParticipantResponse(participant))
}
