package repository

import (
	"context"

	"github.com/yourusername/sof-stats/internal/domain/entity"
)

// ResultFilter единый набор необязательных предикатов для выборки результатов.
// Незаданные поля не ограничивают выборку.
type ResultFilter struct {
	ParticipantID *uint
	EpisodeID     *uint
	DateRange     entity.DateRange
	Theme         string
}

// ForParticipant возвращает копию фильтра, ограниченную участником
func (f ResultFilter) ForParticipant(id uint) ResultFilter {
	f.ParticipantID = &id
	return f
}

// ForEpisode возвращает копию фильтра, ограниченную эпизодом
func (f ResultFilter) ForEpisode(id uint) ResultFilter {
	f.EpisodeID = &id
	return f
}

// ResultRepository определяет методы для чтения результатов
type ResultRepository interface {
	// List возвращает результаты в хронологическом порядке эпизодов
	// (дата, затем номер эпизода) вместе с предзагруженным Episode.
	List(ctx context.Context, filter ResultFilter) ([]entity.Result, error)
	// Get возвращает результат участника в конкретном эпизоде
	Get(ctx context.Context, episodeID, participantID uint) (*entity.Result, error)
}
