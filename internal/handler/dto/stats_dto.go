package dto

import (
	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/service/stats"
)

// FilterResponse фильтры, с которыми посчитана статистика
type FilterResponse struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Theme string `json:"theme,omitempty"`
}

// AccuracyResponse общая точность участника
type AccuracyResponse struct {
	Participant  string         `json:"participant"`
	Accuracy     float64        `json:"accuracy"`
	NumCorrect   int            `json:"num_correct"`
	NumIncorrect int            `json:"num_incorrect"`
	Filter       FilterResponse `json:"filter"`
}

// SeriesPointResponse точка ряда накопленной точности
type SeriesPointResponse struct {
	EpNum    int     `json:"ep_num"`
	Date     string  `json:"date"`
	Accuracy float64 `json:"accuracy"`
}

// SeriesResponse ряд накопленной точности участника
type SeriesResponse struct {
	Participant string                `json:"participant"`
	Points      []SeriesPointResponse `json:"points"`
	Filter      FilterResponse        `json:"filter"`
}

// AttendanceResponse доля эпизодов, в которых участник присутствовал
type AttendanceResponse struct {
	Participant string         `json:"participant"`
	Attendance  float64        `json:"attendance"`
	Filter      FilterResponse `json:"filter"`
}

// SweepsResponse эпизоды, где все ответили одинаково
type SweepsResponse struct {
	Scope    string            `json:"scope"`
	Episodes []EpisodeResponse `json:"episodes"`
	Total    int               `json:"total"`
}

// NewFilterResponse описывает фильтр в формате YYYY-MM-DD
func NewFilterResponse(dateRange entity.DateRange, theme string) FilterResponse {
	f := FilterResponse{Theme: theme}
	if !dateRange.Start.IsZero() {
		f.Start = dateRange.Start.Format(entity.DateLayout)
	}
	if !dateRange.End.IsZero() {
		f.End = dateRange.End.Format(entity.DateLayout)
	}
	return f
}

// NewSeriesResponse создает ответ с рядом точности
func NewSeriesResponse(name string, points []stats.Point, filter stats.Filter) *SeriesResponse {
	resp := &SeriesResponse{
		Participant: name,
		Points:      make([]SeriesPointResponse, 0, len(points)),
		Filter:      NewFilterResponse(filter.DateRange, filter.Theme),
	}
	for _, p := range points {
		resp.Points = append(resp.Points, SeriesPointResponse{
			EpNum:    p.EpNum,
			Date:     p.Date.Format(entity.DateLayout),
			Accuracy: p.Accuracy,
		})
	}
	return resp
}
