package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
)

// ResultRepo реализует repository.ResultRepository
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo создает новый репозиторий результатов
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// List возвращает результаты по фильтру в хронологическом порядке эпизодов
func (r *ResultRepo) List(ctx context.Context, filter repository.ResultFilter) ([]entity.Result, error) {
	q := r.db.WithContext(ctx).Model(&entity.Result{}).
		Select("results.*").
		Joins("JOIN episodes ON episodes.id = results.episode_id").
		Preload("Episode")

	if filter.ParticipantID != nil {
		q = q.Where("results.participant_id = ?", *filter.ParticipantID)
	}
	if filter.EpisodeID != nil {
		q = q.Where("results.episode_id = ?", *filter.EpisodeID)
	}
	q = applyDateRange(q, "episodes.date", filter.DateRange)
	if filter.Theme != "" {
		q = q.Where("episodes.theme = ?", filter.Theme)
	}

	var results []entity.Result
	err := q.Order("episodes.date ASC, episodes.ep_num ASC, results.id ASC").Find(&results).Error
	return results, err
}

// Get возвращает результат участника в эпизоде
func (r *ResultRepo) Get(ctx context.Context, episodeID, participantID uint) (*entity.Result, error) {
	var result entity.Result
	err := r.db.WithContext(ctx).
		Preload("Episode").
		Preload("Participant").
		Where("episode_id = ? AND participant_id = ?", episodeID, participantID).
		First(&result).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &result, nil
}
