package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
	"github.com/yourusername/sof-stats/internal/service/stats"
)

// Типы графиков
const (
	ChartOverallAccuracy  = "overallAccuracy"
	ChartAccuracyOverTime = "accuracyOverTime"
	ChartSweeps           = "sweeps"

	// OverallYear значение года "за все время"
	OverallYear = "overall"
)

// ChartTypes все поддерживаемые типы графиков
var ChartTypes = []string{ChartOverallAccuracy, ChartAccuracyOverTime, ChartSweeps}

// ChartPoint точка графика: категория (для столбцов) или дата (для линий)
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	Date  string  `json:"date,omitempty"`
	EpNum int     `json:"ep_num,omitempty"`
	Value float64 `json:"value"`
}

// ChartSeries именованная последовательность точек
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// Chart данные одного графика, готовые для отрисовки на клиенте
type Chart struct {
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Title  string        `json:"title"`
	YLabel string        `json:"y_label"`
	Year   string        `json:"year"`
	Theme  string        `json:"theme,omitempty"`
	Series []ChartSeries `json:"series"`
}

// ChartService строит наборы данных для графиков статистики
type ChartService struct {
	engine       *stats.Engine
	participants repository.ParticipantRepository
	episodes     repository.EpisodeRepository
	cache        *StatsCache
}

// NewChartService создает сервис графиков
func NewChartService(
	engine *stats.Engine,
	participants repository.ParticipantRepository,
	episodes repository.EpisodeRepository,
	cache *StatsCache,
) *ChartService {
	return &ChartService{
		engine:       engine,
		participants: participants,
		episodes:     episodes,
		cache:        cache,
	}
}

// ParseChartYear переводит год запроса в диапазон дат: пустое значение и "overall" означают все время
func ParseChartYear(year string) (entity.DateRange, string, error) {
	year = strings.TrimSpace(year)
	if year == "" || year == OverallYear {
		return entity.DateRange{}, OverallYear, nil
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 9999 {
		return entity.DateRange{}, "", fmt.Errorf("%w: invalid year %q", apperrors.ErrValidation, year)
	}
	return entity.YearRange(y), year, nil
}

// chartName имя графика как в кеше и на клиенте: тип, год и тема через ":".
// Тема пустая, если фильтра нет; график sweeps тему не учитывает.
func chartName(chartType, year, theme string) string {
	if chartType == ChartSweeps {
		theme = ""
	}
	return strings.Join([]string{chartType, year, theme}, ":")
}

// Graph возвращает график указанного типа за год и тему
func (s *ChartService) Graph(ctx context.Context, chartType, year, theme string) (*Chart, error) {
	dateRange, year, err := ParseChartYear(year)
	if err != nil {
		return nil, err
	}
	theme = ParseThemeFilter(theme)
	if chartType == ChartSweeps {
		theme = ""
	}

	chart := &Chart{Name: chartName(chartType, year, theme), Type: chartType, Year: year, Theme: theme}
	build := func() (*Chart, error) {
		switch chartType {
		case ChartOverallAccuracy:
			return s.overallAccuracy(ctx, chart, dateRange, theme)
		case ChartAccuracyOverTime:
			return s.accuracyOverTime(ctx, chart, dateRange, theme)
		case ChartSweeps:
			return s.sweeps(ctx, chart, dateRange)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownChartType, chartType)
	}
	return load(ctx, s.cache, build, "chart", chart.Name)
}

func (s *ChartService) rogues(ctx context.Context, dateRange entity.DateRange) ([]entity.Participant, error) {
	rogues, err := s.participants.ListRogues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rogues: %w", err)
	}
	return FilterRogues(rogues, RogueQuery{Overlaps: dateRange}), nil
}

func (s *ChartService) overallAccuracy(ctx context.Context, chart *Chart, dateRange entity.DateRange, theme string) (*Chart, error) {
	rogues, err := s.rogues(ctx, dateRange)
	if err != nil {
		return nil, err
	}

	series := ChartSeries{Name: "Accuracy", Points: make([]ChartPoint, 0, len(rogues))}
	for _, rogue := range rogues {
		acc, err := s.engine.OverallAccuracy(ctx, rogue.Name, stats.Filter{DateRange: dateRange, Theme: theme})
		if err != nil {
			return nil, err
		}
		series.Points = append(series.Points, ChartPoint{Label: rogue.Name, Value: acc.Accuracy * 100})
	}

	chart.Title = "Rogue Accuracies"
	chart.YLabel = "Percent Correct"
	chart.Series = []ChartSeries{series}
	return chart, nil
}

func (s *ChartService) accuracyOverTime(ctx context.Context, chart *Chart, dateRange entity.DateRange, theme string) (*Chart, error) {
	rogues, err := s.rogues(ctx, dateRange)
	if err != nil {
		return nil, err
	}

	chart.Series = make([]ChartSeries, 0, len(rogues))
	for _, rogue := range rogues {
		ts, err := s.engine.AccuracyTimeSeries(ctx, rogue.Name, stats.Filter{DateRange: dateRange, Theme: theme})
		if err != nil {
			return nil, err
		}
		series := ChartSeries{Name: rogue.Name, Points: make([]ChartPoint, 0, ts.Len())}
		for p := range ts.All() {
			series.Points = append(series.Points, ChartPoint{Date: p.Date.Format(entity.DateLayout), EpNum: p.EpNum, Value: p.Accuracy * 100})
		}
		chart.Series = append(chart.Series, series)
	}

	chart.Title = "Rogue Accuracies"
	chart.YLabel = "Accuracy"
	return chart, nil
}

// sweeps строит накопленное число свипов каждого вида по эпизодам диапазона
func (s *ChartService) sweeps(ctx context.Context, chart *Chart, dateRange entity.DateRange) (*Chart, error) {
	episodes, kinds, err := s.engine.Classify(ctx, dateRange)
	if err != nil {
		return nil, err
	}

	presenter := ChartSeries{Name: "Presenter Sweeps", Points: make([]ChartPoint, 0, len(episodes))}
	participant := ChartSeries{Name: "Participant Sweeps", Points: make([]ChartPoint, 0, len(episodes))}
	numPresenter, numParticipant := 0, 0
	for _, ep := range episodes {
		switch kinds[ep.ID] {
		case entity.SweepPresenter:
			numPresenter++
		case entity.SweepParticipant:
			numParticipant++
		}
		d := ep.Date.Format(entity.DateLayout)
		presenter.Points = append(presenter.Points, ChartPoint{Date: d, EpNum: ep.EpNum, Value: float64(numPresenter)})
		participant.Points = append(participant.Points, ChartPoint{Date: d, EpNum: ep.EpNum, Value: float64(numParticipant)})
	}

	chart.Title = "Sweeps"
	chart.YLabel = "Number of Sweeps"
	chart.Series = []ChartSeries{presenter, participant}
	return chart, nil
}

// WarmUp строит все графики за каждый год и за все время, чтобы первые запросы попадали в кеш
func (s *ChartService) WarmUp(ctx context.Context) error {
	years, err := s.episodes.ListYears(ctx)
	if err != nil {
		return fmt.Errorf("failed to list years: %w", err)
	}
	labels := make([]string, 0, len(years)+1)
	labels = append(labels, OverallYear)
	for _, y := range years {
		labels = append(labels, strconv.Itoa(y))
	}

	built := 0
	for _, chartType := range ChartTypes {
		for _, year := range labels {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := s.Graph(ctx, chartType, year, ""); err != nil {
				log.Printf("[ChartService] Не удалось построить график %s за %s: %v", chartType, year, err)
				continue
			}
			built++
		}
	}
	log.Printf("[ChartService] Прогрев завершен, графиков построено: %d", built)
	return nil
}
