package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
	"github.com/yourusername/sof-stats/internal/service/stats"
)

// statsVersionKey поколение кеша статистики. Любая запись эпизода увеличивает его,
// и все ранее закешированные ответы перестают читаться.
const statsVersionKey = "stats:version"

// StatsCache версионированный кеш ответов статистики поверх Redis
type StatsCache struct {
	cache repository.CacheRepository
	ttl   time.Duration
}

// NewStatsCache создает кеш; cache может быть nil, тогда кеширование выключено
func NewStatsCache(cache repository.CacheRepository, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StatsCache{cache: cache, ttl: ttl}
}

func (c *StatsCache) key(ctx context.Context, parts ...string) (string, bool) {
	if c == nil || c.cache == nil {
		return "", false
	}
	version, err := c.cache.Generation(ctx, statsVersionKey)
	if err != nil {
		log.Printf("[StatsCache] Ошибка чтения версии кеша: %v", err)
		return "", false
	}
	return fmt.Sprintf("stats:v%d:%s", version, strings.Join(parts, ":")), true
}

// load читает значение из кеша, а при промахе вычисляет и сохраняет его
func load[T any](ctx context.Context, c *StatsCache, compute func() (T, error), parts ...string) (T, error) {
	key, ok := c.key(ctx, parts...)
	if ok {
		var cached T
		if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[StatsCache] Ошибка чтения %s: %v", key, err)
		}
	}

	value, err := compute()
	if err != nil {
		return value, err
	}
	if ok {
		if err := c.cache.SetJSON(ctx, key, value, c.ttl); err != nil {
			log.Printf("[StatsCache] Ошибка записи %s: %v", key, err)
		}
	}
	return value, nil
}

// Invalidate сбрасывает все закешированные ответы
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.cache == nil {
		return
	}
	if _, err := c.cache.BumpGeneration(ctx, statsVersionKey); err != nil {
		log.Printf("[StatsCache] Не удалось сбросить кеш статистики: %v", err)
	}
}

func dateKey(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(entity.DateLayout)
}

func filterKey(f stats.Filter) []string {
	return []string{dateKey(f.DateRange.Start), dateKey(f.DateRange.End), f.Theme}
}

// StatsService отдает статистику движка с кешированием в Redis
type StatsService struct {
	engine *stats.Engine
	cache  *StatsCache
}

// NewStatsService создает сервис статистики
func NewStatsService(engine *stats.Engine, cache *StatsCache) *StatsService {
	return &StatsService{engine: engine, cache: cache}
}

// OverallAccuracy общая точность участника
func (s *StatsService) OverallAccuracy(ctx context.Context, name string, filter stats.Filter) (stats.Accuracy, error) {
	name = entity.NormalizeName(name)
	parts := append([]string{"accuracy", name}, filterKey(filter)...)
	return load(ctx, s.cache, func() (stats.Accuracy, error) {
		return s.engine.OverallAccuracy(ctx, name, filter)
	}, parts...)
}

// AccuracySeries точки накопленной точности участника
func (s *StatsService) AccuracySeries(ctx context.Context, name string, filter stats.Filter) ([]stats.Point, error) {
	name = entity.NormalizeName(name)
	parts := append([]string{"series", name}, filterKey(filter)...)
	return load(ctx, s.cache, func() ([]stats.Point, error) {
		series, err := s.engine.AccuracyTimeSeries(ctx, name, filter)
		if err != nil {
			return nil, err
		}
		return series.Points(), nil
	}, parts...)
}

// Attendance посещаемость участника
func (s *StatsService) Attendance(ctx context.Context, name string, dateRange entity.DateRange) (float64, error) {
	name = entity.NormalizeName(name)
	return load(ctx, s.cache, func() (float64, error) {
		return s.engine.Attendance(ctx, name, dateRange)
	}, "attendance", name, dateKey(dateRange.Start), dateKey(dateRange.End))
}

// Sweeps эпизоды-свипы выбранного вида
func (s *StatsService) Sweeps(ctx context.Context, scope stats.SweepScope, dateRange entity.DateRange) ([]entity.Episode, error) {
	return load(ctx, s.cache, func() ([]entity.Episode, error) {
		return s.engine.Sweeps(ctx, scope, dateRange)
	}, "sweeps", fmt.Sprint(int(scope)), dateKey(dateRange.Start), dateKey(dateRange.End))
}
