package stats

import (
	"context"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
)

// Store описывает все, что движку статистики нужно от хранилища
type Store interface {
	GetParticipantByName(ctx context.Context, name string) (*entity.Participant, error)
	// ListResults должен возвращать результаты в хронологическом порядке эпизодов
	ListResults(ctx context.Context, filter repository.ResultFilter) ([]entity.Result, error)
	// ListEpisodes возвращает эпизоды диапазона, упорядоченные по дате
	ListEpisodes(ctx context.Context, dateRange entity.DateRange) ([]entity.Episode, error)
	SetEpisodeSweep(ctx context.Context, episodeID uint, kind entity.SweepKind) (bool, error)
}

// RepositoryStore собирает Store из репозиториев
type RepositoryStore struct {
	participants repository.ParticipantRepository
	results      repository.ResultRepository
	episodes     repository.EpisodeRepository
}

// NewRepositoryStore создает Store поверх репозиториев
func NewRepositoryStore(
	participants repository.ParticipantRepository,
	results repository.ResultRepository,
	episodes repository.EpisodeRepository,
) *RepositoryStore {
	return &RepositoryStore{
		participants: participants,
		results:      results,
		episodes:     episodes,
	}
}

func (s *RepositoryStore) GetParticipantByName(ctx context.Context, name string) (*entity.Participant, error) {
	return s.participants.GetByName(ctx, name)
}

func (s *RepositoryStore) ListResults(ctx context.Context, filter repository.ResultFilter) ([]entity.Result, error) {
	return s.results.List(ctx, filter)
}

func (s *RepositoryStore) ListEpisodes(ctx context.Context, dateRange entity.DateRange) ([]entity.Episode, error) {
	return s.episodes.List(ctx, dateRange, false)
}

func (s *RepositoryStore) SetEpisodeSweep(ctx context.Context, episodeID uint, kind entity.SweepKind) (bool, error) {
	return s.episodes.SetSweep(ctx, episodeID, kind)
}
