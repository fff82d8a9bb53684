package stats

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// SweepScope какие свипы включать в выборку
type SweepScope int

const (
	ScopePresenter SweepScope = 1 << iota
	ScopeParticipant
	ScopeBoth = ScopePresenter | ScopeParticipant
)

// ParseSweepScope разбирает параметр scope из запроса
func ParseSweepScope(s string) (SweepScope, error) {
	switch s {
	case "presenter":
		return ScopePresenter, nil
	case "participant":
		return ScopeParticipant, nil
	case "", "both", "all":
		return ScopeBoth, nil
	}
	return 0, fmt.Errorf("%w: unknown sweep scope %q", apperrors.ErrValidation, s)
}

// ClassifySweep единое правило классификации эпизода по его результатам.
// Результаты без правильности (absent, presenter) не учитываются.
func ClassifySweep(results []entity.Result) entity.SweepKind {
	n, correct := 0, 0
	for i := range results {
		if !results[i].Eligible() {
			continue
		}
		n++
		if *results[i].IsCorrect {
			correct++
		}
	}
	switch {
	case n == 0:
		return entity.SweepNone
	case correct == 0:
		return entity.SweepPresenter
	case correct == n:
		return entity.SweepParticipant
	default:
		return entity.SweepNone
	}
}

// Classify возвращает эпизоды диапазона по дате и классификацию каждого из них.
// Результаты читаются одним запросом и группируются по эпизоду.
func (e *Engine) Classify(ctx context.Context, dateRange entity.DateRange) ([]entity.Episode, map[uint]entity.SweepKind, error) {
	if err := dateRange.Validate(); err != nil {
		return nil, nil, err
	}
	episodes, err := e.store.ListEpisodes(ctx, dateRange)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	results, err := e.store.ListResults(ctx, repository.ResultFilter{DateRange: dateRange})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list results: %w", err)
	}

	byEpisode := make(map[uint][]entity.Result, len(episodes))
	for _, r := range results {
		byEpisode[r.EpisodeID] = append(byEpisode[r.EpisodeID], r)
	}
	kinds := make(map[uint]entity.SweepKind, len(episodes))
	for _, ep := range episodes {
		kinds[ep.ID] = ClassifySweep(byEpisode[ep.ID])
	}
	return episodes, kinds, nil
}

// Sweeps возвращает эпизоды диапазона, классифицированные как свип выбранного вида.
// При ScopeBoth эпизод проверяется по каждому виду независимо.
func (e *Engine) Sweeps(ctx context.Context, scope SweepScope, dateRange entity.DateRange) ([]entity.Episode, error) {
	episodes, kinds, err := e.Classify(ctx, dateRange)
	if err != nil {
		return nil, err
	}

	sweeps := make([]entity.Episode, 0)
	for _, ep := range episodes {
		kind := kinds[ep.ID]
		if scope&ScopePresenter != 0 && kind == entity.SweepPresenter {
			sweeps = append(sweeps, ep)
		}
		if scope&ScopeParticipant != 0 && kind == entity.SweepParticipant {
			sweeps = append(sweeps, ep)
		}
	}
	return sweeps, nil
}

// CheckSweep классифицирует эпизод после записи всех его результатов и сохраняет
// метку. Переход из неклассифицированного состояния происходит один раз: повторный
// вызов ничего не меняет и возвращает applied=false.
func (e *Engine) CheckSweep(ctx context.Context, episodeID uint) (kind entity.SweepKind, applied bool, err error) {
	results, err := e.store.ListResults(ctx, repository.ResultFilter{}.ForEpisode(episodeID))
	if err != nil {
		return "", false, fmt.Errorf("failed to list results for episode %d: %w", episodeID, err)
	}
	kind = ClassifySweep(results)
	applied, err = e.store.SetEpisodeSweep(ctx, episodeID, kind)
	if err != nil {
		return "", false, fmt.Errorf("failed to store sweep for episode %d: %w", episodeID, err)
	}
	if applied {
		log.Printf("[Stats] Эпизод #%d классифицирован как %s", episodeID, kind)
	}
	return kind, applied, nil
}
