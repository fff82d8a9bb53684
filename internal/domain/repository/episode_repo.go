package repository

import (
	"context"

	"github.com/yourusername/sof-stats/internal/domain/entity"
)

// ResultEntry описывает результат, который нужно сохранить вместе с эпизодом.
// Guest=true разрешает создать участника-гостя при первом появлении;
// для rogue участник обязан уже существовать.
type ResultEntry struct {
	ParticipantName string
	Guest           bool
	Outcome         entity.Outcome
}

// EpisodeRepository определяет методы для работы с эпизодами
type EpisodeRepository interface {
	// CreateWithResults сохраняет эпизод и все его результаты в одной транзакции.
	// Записи с OutcomeNone пропускаются.
	CreateWithResults(ctx context.Context, episode *entity.Episode, entries []ResultEntry) ([]entity.Result, error)
	GetByID(ctx context.Context, id uint) (*entity.Episode, error)
	GetByNum(ctx context.Context, epNum int) (*entity.Episode, error)
	// List возвращает эпизоды в диапазоне, упорядоченные по дате (desc - по номеру в обратном порядке)
	List(ctx context.Context, dateRange entity.DateRange, desc bool) ([]entity.Episode, error)
	// SetSweep записывает классификацию только если эпизод еще не классифицирован.
	// Возвращает false, если классификация уже была.
	SetSweep(ctx context.Context, episodeID uint, kind entity.SweepKind) (bool, error)
	// ListUnclassified возвращает id эпизодов без классификации, по возрастанию
	ListUnclassified(ctx context.Context) ([]uint, error)
	ListThemes(ctx context.Context) ([]string, error)
	ListYears(ctx context.Context) ([]int, error)
	Summaries(ctx context.Context) ([]EpisodeSummary, error)
}
