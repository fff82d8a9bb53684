package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// GuestInput исход гостя в эпизоде
type GuestInput struct {
	Name  string
	Label string
}

// AddEpisodeInput данные формы нового эпизода.
// Rogues сопоставляет имя rogue с меткой исхода; Presenter - имя rogue, который вел рубрику.
type AddEpisodeInput struct {
	EpNum     int
	Date      time.Time
	NumItems  int
	Theme     string
	Presenter string
	Rogues    map[string]string
	Guests    []GuestInput
}

// AddEpisodeResult итог добавления эпизода
type AddEpisodeResult struct {
	Episode *entity.Episode
	Results []entity.Result
	Sweep   entity.SweepKind
}

// SweepChecker классифицирует эпизод после записи результатов
type SweepChecker interface {
	CheckSweep(ctx context.Context, episodeID uint) (entity.SweepKind, bool, error)
}

// EpisodeEvents получает уведомления о новых эпизодах (живая лента)
type EpisodeEvents interface {
	EpisodeAdded(ctx context.Context, episode *entity.Episode, sweep entity.SweepKind)
}

// EpisodeService управляет эпизодами и их результатами
type EpisodeService struct {
	episodes repository.EpisodeRepository
	sweeps   SweepChecker
	cache    *StatsCache
	events   EpisodeEvents
}

// NewEpisodeService создает сервис эпизодов. events может быть nil.
func NewEpisodeService(
	episodes repository.EpisodeRepository,
	sweeps SweepChecker,
	cache *StatsCache,
	events EpisodeEvents,
) *EpisodeService {
	return &EpisodeService{
		episodes: episodes,
		sweeps:   sweeps,
		cache:    cache,
		events:   events,
	}
}

// buildEntries переводит метки формы в записи результатов. Все метки разбираются
// до обращения к БД, и одна неверная метка отклоняет весь эпизод.
func buildEntries(input AddEpisodeInput) ([]repository.ResultEntry, error) {
	presenter := entity.NormalizeName(input.Presenter)

	rogueNames := make([]string, 0, len(input.Rogues))
	for name := range input.Rogues {
		rogueNames = append(rogueNames, name)
	}
	sort.Strings(rogueNames)

	seen := make(map[string]bool, len(input.Rogues)+len(input.Guests))
	entries := make([]repository.ResultEntry, 0, len(input.Rogues)+len(input.Guests)+1)
	presenterSeen := false

	add := func(rawName, label string, guest bool) error {
		name := entity.NormalizeName(rawName)
		if name == "" {
			return fmt.Errorf("%w: participant name is required", apperrors.ErrValidation)
		}
		if seen[name] {
			return fmt.Errorf("%w: %s listed twice", apperrors.ErrValidation, name)
		}
		seen[name] = true

		outcome, err := entity.ParseOutcome(label)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !guest && presenter != "" && name == presenter {
			outcome = entity.OutcomePresenter
			presenterSeen = true
		}
		entries = append(entries, repository.ResultEntry{ParticipantName: name, Guest: guest, Outcome: outcome})
		return nil
	}

	for _, name := range rogueNames {
		if err := add(name, input.Rogues[name], false); err != nil {
			return nil, err
		}
	}
	for _, g := range input.Guests {
		if err := add(g.Name, g.Label, true); err != nil {
			return nil, err
		}
	}

	if presenter != "" && !presenterSeen {
		if seen[presenter] {
			return nil, fmt.Errorf("%w: presenter %s must be a rogue", apperrors.ErrValidation, presenter)
		}
		entries = append(entries, repository.ResultEntry{ParticipantName: presenter, Outcome: entity.OutcomePresenter})
	}
	return entries, nil
}

// AddEpisode сохраняет эпизод со всеми результатами, затем один раз классифицирует его
func (s *EpisodeService) AddEpisode(ctx context.Context, input AddEpisodeInput) (*AddEpisodeResult, error) {
	episode := entity.NewEpisode(input.EpNum, input.Date, input.NumItems, input.Theme)
	if err := episode.Validate(); err != nil {
		return nil, err
	}
	entries, err := buildEntries(input)
	if err != nil {
		return nil, err
	}

	results, err := s.episodes.CreateWithResults(ctx, episode, entries)
	if err != nil {
		return nil, err
	}

	kind, _, err := s.sweeps.CheckSweep(ctx, episode.ID)
	if err != nil {
		// Эпизод без метки подхватит ReconcileSweeps
		log.Printf("[EpisodeService] Не удалось классифицировать эпизод #%d: %v", episode.EpNum, err)
		kind = ""
	} else {
		k := string(kind)
		episode.Sweep = &k
	}

	s.cache.Invalidate(ctx)
	if s.events != nil && kind != "" {
		s.events.EpisodeAdded(ctx, episode, kind)
	}

	log.Printf("[EpisodeService] Добавлен эпизод %s", episode)
	return &AddEpisodeResult{Episode: episode, Results: results, Sweep: kind}, nil
}

// ReconcileSweeps классифицирует эпизоды, оставшиеся без метки после сбоя CheckSweep.
// Возвращает число записанных меток; ошибка одного эпизода не останавливает остальные.
func (s *EpisodeService) ReconcileSweeps(ctx context.Context) (int, error) {
	ids, err := s.episodes.ListUnclassified(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unclassified episodes: %w", err)
	}

	applied := 0
	var failed []error
	for _, id := range ids {
		kind, ok, err := s.sweeps.CheckSweep(ctx, id)
		if err != nil {
			failed = append(failed, err)
			continue
		}
		if ok {
			applied++
			log.Printf("[EpisodeService] Эпизод id=%d доклассифицирован как %s", id, kind)
		}
	}

	if applied > 0 {
		s.cache.Invalidate(ctx)
	}
	return applied, errors.Join(failed...)
}

// GetEpisode возвращает эпизод с результатами
func (s *EpisodeService) GetEpisode(ctx context.Context, epNum int) (*entity.Episode, error) {
	return s.episodes.GetByNum(ctx, epNum)
}

// ListEpisodes возвращает эпизоды диапазона
func (s *EpisodeService) ListEpisodes(ctx context.Context, dateRange entity.DateRange, desc bool) ([]entity.Episode, error) {
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}
	return s.episodes.List(ctx, dateRange, desc)
}

// ListThemes возвращает все темы эпизодов
func (s *EpisodeService) ListThemes(ctx context.Context) ([]string, error) {
	return s.episodes.ListThemes(ctx)
}

// ListYears возвращает годы выхода эпизодов
func (s *EpisodeService) ListYears(ctx context.Context) ([]int, error) {
	return s.episodes.ListYears(ctx)
}

// Summaries сводная таблица эпизодов
func (s *EpisodeService) Summaries(ctx context.Context) ([]repository.EpisodeSummary, error) {
	return s.episodes.Summaries(ctx)
}

// ParseThemeFilter приводит параметр темы запроса к фильтру: "all" и пустое значение снимают ограничение
func ParseThemeFilter(theme string) string {
	theme = strings.TrimSpace(theme)
	if strings.EqualFold(theme, "all") {
		return ""
	}
	return theme
}
