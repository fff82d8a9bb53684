package dto

import (
	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
)

// GuestResultRequest исход гостя в форме эпизода
type GuestResultRequest struct {
	Name   string `json:"name" binding:"required,max=80"`
	Result string `json:"result" binding:"required"`
}

// AddEpisodeRequest форма добавления эпизода.
// Rogues сопоставляет имя rogue с меткой correct|incorrect|absent|presenter|NULL.
type AddEpisodeRequest struct {
	EpNum     int                  `json:"ep_num" binding:"required,min=1"`
	Date      string               `json:"date" binding:"required"`
	NumItems  int                  `json:"num_items" binding:"required,min=1,max=10"`
	Theme     string               `json:"theme" binding:"omitempty,max=50"`
	Presenter string               `json:"presenter" binding:"required"`
	Rogues    map[string]string    `json:"rogues" binding:"required"`
	Guests    []GuestResultRequest `json:"guests" binding:"omitempty,dive"`
}

// EpisodeResponse эпизод в формате ответа клиенту
type EpisodeResponse struct {
	ID       uint    `json:"id"`
	EpNum    int     `json:"ep_num"`
	Date     string  `json:"date"`
	NumItems int     `json:"num_items"`
	Theme    *string `json:"theme,omitempty"`
	Sweep    *string `json:"sweep,omitempty"`
}

// ResultResponse результат участника в эпизоде
type ResultResponse struct {
	Participant string `json:"participant"`
	Outcome     string `json:"outcome"`
}

// AddEpisodeResponse ответ на добавление эпизода
type AddEpisodeResponse struct {
	Episode EpisodeResponse  `json:"episode"`
	Results []ResultResponse `json:"results"`
	Sweep   string           `json:"sweep"`
}

// EpisodeSummaryResponse строка сводной таблицы эпизодов
type EpisodeSummaryResponse struct {
	EpNum     int     `json:"ep_num"`
	Date      string  `json:"date"`
	NumItems  int     `json:"num_items"`
	Theme     *string `json:"theme,omitempty"`
	Presenter *string `json:"presenter,omitempty"`
	Sweep     *string `json:"sweep,omitempty"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
}

// NewEpisodeResponse создает DTO эпизода
func NewEpisodeResponse(e *entity.Episode) EpisodeResponse {
	return EpisodeResponse{
		ID:       e.ID,
		EpNum:    e.EpNum,
		Date:     e.Date.Format(entity.DateLayout),
		NumItems: e.NumItems,
		Theme:    e.Theme,
		Sweep:    e.Sweep,
	}
}

// NewListEpisodeResponse создает список DTO эпизодов
func NewListEpisodeResponse(episodes []entity.Episode) []EpisodeResponse {
	resp := make([]EpisodeResponse, 0, len(episodes))
	for i := range episodes {
		resp = append(resp, NewEpisodeResponse(&episodes[i]))
	}
	return resp
}

// NewAddEpisodeResponse создает ответ на добавление эпизода
func NewAddEpisodeResponse(episode *entity.Episode, results []entity.Result, sweep entity.SweepKind) *AddEpisodeResponse {
	resp := &AddEpisodeResponse{
		Episode: NewEpisodeResponse(episode),
		Results: make([]ResultResponse, 0, len(results)),
		Sweep:   string(sweep),
	}
	for i := range results {
		r := &results[i]
		name := ""
		if r.Participant != nil {
			name = r.Participant.Name
		}
		resp.Results = append(resp.Results, ResultResponse{Participant: name, Outcome: r.Outcome().String()})
	}
	return resp
}

// NewEpisodeSummaryResponse переводит сводку в формат ответа
func NewEpisodeSummaryResponse(rows []repository.EpisodeSummary) []EpisodeSummaryResponse {
	resp := make([]EpisodeSummaryResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, EpisodeSummaryResponse{
			EpNum:     row.EpNum,
			Date:      row.Date.Format(entity.DateLayout),
			NumItems:  row.NumItems,
			Theme:     row.Theme,
			Presenter: row.Presenter,
			Sweep:     row.Sweep,
			Correct:   row.Correct,
			Incorrect: row.Incorrect,
		})
	}
	return resp
}
