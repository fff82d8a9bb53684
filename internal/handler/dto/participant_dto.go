package dto

import (
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
)

// AddParticipantRequest форма добавления участника. Даты в формате YYYY-MM-DD.
type AddParticipantRequest struct {
	Name           string `json:"name" binding:"required,max=80"`
	IsRogue        bool   `json:"is_rogue"`
	RogueStartDate string `json:"rogue_start_date" binding:"omitempty"`
	RogueEndDate   string `json:"rogue_end_date" binding:"omitempty"`
}

// ParticipantResponse участник в формате ответа клиенту
type ParticipantResponse struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	IsRogue        bool    `json:"is_rogue"`
	RogueStartDate *string `json:"rogue_start_date,omitempty"`
	RogueEndDate   *string `json:"rogue_end_date,omitempty"`
}

// RogueSummaryResponse строка сводной таблицы rogue
type RogueSummaryResponse struct {
	Name           string  `json:"name"`
	RogueStartDate *string `json:"rogue_start_date,omitempty"`
	RogueEndDate   *string `json:"rogue_end_date,omitempty"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
}

func formatDatePtr(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(entity.DateLayout)
	return &s
}

// NewParticipantResponse создает DTO участника
func NewParticipantResponse(p *entity.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:             p.ID,
		Name:           p.Name,
		IsRogue:        p.IsRogue,
		RogueStartDate: formatDatePtr(p.RogueStartDate),
		RogueEndDate:   formatDatePtr(p.RogueEndDate),
	}
}

// NewListParticipantResponse создает список DTO участников
func NewListParticipantResponse(participants []entity.Participant) []ParticipantResponse {
	resp := make([]ParticipantResponse, 0, len(participants))
	for i := range participants {
		resp = append(resp, NewParticipantResponse(&participants[i]))
	}
	return resp
}

// NewRogueSummaryResponse переводит сводку rogue в формат ответа
func NewRogueSummaryResponse(rows []repository.RogueSummary) []RogueSummaryResponse {
	resp := make([]RogueSummaryResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, RogueSummaryResponse{
			Name:           row.Name,
			RogueStartDate: formatDatePtr(row.RogueStartDate),
			RogueEndDate:   formatDatePtr(row.RogueEndDate),
			Correct:        row.Correct,
			Incorrect:      row.Incorrect,
		})
	}
	return resp
}
