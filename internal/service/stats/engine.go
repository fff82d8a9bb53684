// Package stats вычисляет статистику рубрики: точность участников, ее динамику,
// посещаемость и "свипы" (эпизоды, где все участники ответили одинаково).
//
// Пропуски (absent) и ведение рубрики (presenter) не участвуют в подсчете
// правильности ни в общей точности, ни во временном ряду. Поэтому последняя точка
// ряда всегда равна общей точности за тот же фильтр. При пустом наборе точность и
// посещаемость равны 0, деление на ноль ошибкой не считается.
package stats

import (
	"context"
	"fmt"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
)

// Filter необязательные ограничения для статистики участника
type Filter struct {
	DateRange entity.DateRange
	Theme     string
}

// Validate проверяет фильтр
func (f Filter) Validate() error {
	return f.DateRange.Validate()
}

func (f Filter) resultFilter() repository.ResultFilter {
	return repository.ResultFilter{DateRange: f.DateRange, Theme: f.Theme}
}

// Accuracy итог по правильности ответов
type Accuracy struct {
	Accuracy     float64 `json:"accuracy"`
	NumCorrect   int     `json:"num_correct"`
	NumIncorrect int     `json:"num_incorrect"`
}

// Engine движок статистики. Не хранит состояния между вызовами.
type Engine struct {
	store Store
}

// NewEngine создает движок поверх хранилища
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// OverallAccuracy считает общую точность участника за фильтр
func (e *Engine) OverallAccuracy(ctx context.Context, name string, filter Filter) (Accuracy, error) {
	results, err := e.participantResults(ctx, name, filter)
	if err != nil {
		return Accuracy{}, err
	}
	return accuracyOf(results), nil
}

// AccuracyTimeSeries возвращает накопленную точность участника по эпизодам
func (e *Engine) AccuracyTimeSeries(ctx context.Context, name string, filter Filter) (Series, error) {
	results, err := e.participantResults(ctx, name, filter)
	if err != nil {
		return Series{}, err
	}
	return newSeries(results), nil
}

// Attendance возвращает долю эпизодов диапазона, где участник не отсутствовал.
// Для участника без результатов возвращается 0.
func (e *Engine) Attendance(ctx context.Context, name string, dateRange entity.DateRange) (float64, error) {
	results, err := e.participantResults(ctx, name, Filter{DateRange: dateRange})
	if err != nil {
		return 0, err
	}
	present := 0
	for i := range results {
		if !results[i].IsAbsent {
			present++
		}
	}
	return ratio(present, len(results)), nil
}

func (e *Engine) participantResults(ctx context.Context, name string, filter Filter) ([]entity.Result, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	participant, err := e.store.GetParticipantByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("participant %q: %w", name, err)
	}
	results, err := e.store.ListResults(ctx, filter.resultFilter().ForParticipant(participant.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to list results for %q: %w", name, err)
	}
	return results, nil
}

func accuracyOf(results []entity.Result) Accuracy {
	var acc Accuracy
	for i := range results {
		if !results[i].Eligible() {
			continue
		}
		if *results[i].IsCorrect {
			acc.NumCorrect++
		} else {
			acc.NumIncorrect++
		}
	}
	acc.Accuracy = ratio(acc.NumCorrect, acc.NumCorrect+acc.NumIncorrect)
	return acc
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
