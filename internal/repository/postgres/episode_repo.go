package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// EpisodeRepo реализует repository.EpisodeRepository
type EpisodeRepo struct {
	db *gorm.DB
}

// NewEpisodeRepo создает новый репозиторий эпизодов
func NewEpisodeRepo(db *gorm.DB) *EpisodeRepo {
	return &EpisodeRepo{db: db}
}

// CreateWithResults сохраняет эпизод и его результаты атомарно.
// Гости создаются при первом появлении, rogue обязан существовать заранее.
// Повтор номера или даты эпизода, как и повтор участника в эпизоде, дает ErrConflict.
func (r *EpisodeRepo) CreateWithResults(ctx context.Context, episode *entity.Episode, entries []repository.ResultEntry) ([]entity.Result, error) {
	var saved []entity.Result

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(episode).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: episode #%d or date %s already exists",
					apperrors.ErrConflict, episode.EpNum, episode.Date.Format(entity.DateLayout))
			}
			return err
		}

		saved = make([]entity.Result, 0, len(entries))
		for _, entry := range entries {
			if !entry.Outcome.Recorded() {
				continue
			}

			participant, err := participantForEntry(tx, entry)
			if err != nil {
				return err
			}

			result, err := entity.NewResult(episode.ID, participant.ID, entry.Outcome)
			if err != nil {
				return err
			}
			if err := tx.Create(result).Error; err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: duplicate result for %s in episode #%d",
						apperrors.ErrConflict, participant.Name, episode.EpNum)
				}
				return err
			}
			result.Participant = participant
			saved = append(saved, *result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[EpisodeRepo] Эпизод #%d сохранен, результатов: %d", episode.EpNum, len(saved))
	return saved, nil
}

func participantForEntry(tx *gorm.DB, entry repository.ResultEntry) (*entity.Participant, error) {
	name := entity.NormalizeName(entry.ParticipantName)

	var participant entity.Participant
	err := tx.Where("name = ?", name).First(&participant).Error
	if err == nil {
		return &participant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !entry.Guest {
		return nil, fmt.Errorf("%w: rogue %q", apperrors.ErrNotFound, name)
	}

	guest := entity.NewGuest(name)
	if err := guest.Validate(); err != nil {
		return nil, err
	}
	if err := tx.Create(guest).Error; err != nil {
		return nil, err
	}
	log.Printf("[EpisodeRepo] Добавлен новый гость: %s", guest.Name)
	return guest, nil
}

// GetByID возвращает эпизод по ID
func (r *EpisodeRepo) GetByID(ctx context.Context, id uint) (*entity.Episode, error) {
	var episode entity.Episode
	if err := r.db.WithContext(ctx).First(&episode, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &episode, nil
}

// GetByNum возвращает эпизод по номеру вместе с результатами и участниками
func (r *EpisodeRepo) GetByNum(ctx context.Context, epNum int) (*entity.Episode, error) {
	var episode entity.Episode
	err := r.db.WithContext(ctx).
		Preload("Results", func(db *gorm.DB) *gorm.DB { return db.Order("results.id") }).
		Preload("Results.Participant").
		Where("ep_num = ?", epNum).
		First(&episode).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &episode, nil
}

// List возвращает эпизоды диапазона
func (r *EpisodeRepo) List(ctx context.Context, dateRange entity.DateRange, desc bool) ([]entity.Episode, error) {
	var episodes []entity.Episode
	q := applyDateRange(r.db.WithContext(ctx).Model(&entity.Episode{}), "date", dateRange)
	if desc {
		q = q.Order("ep_num DESC")
	} else {
		q = q.Order("date ASC, ep_num ASC")
	}
	err := q.Find(&episodes).Error
	return episodes, err
}

// SetSweep записывает классификацию эпизода один раз.
// Условие sweep IS NULL делает переход атомарным без блокировок.
func (r *EpisodeRepo) SetSweep(ctx context.Context, episodeID uint, kind entity.SweepKind) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.Episode{}).
		Where("id = ? AND sweep IS NULL", episodeID).
		Update("sweep", string(kind))
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Episode{}).Where("id = ?", episodeID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, fmt.Errorf("%w: episode id %d", apperrors.ErrNotFound, episodeID)
	}
	return false, nil
}

// ListUnclassified возвращает id эпизодов, у которых sweep еще не записан
func (r *EpisodeRepo) ListUnclassified(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.Episode{}).
		Where("sweep IS NULL").
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// ListThemes возвращает все непустые темы в алфавитном порядке
func (r *EpisodeRepo) ListThemes(ctx context.Context) ([]string, error) {
	var themes []string
	err := r.db.WithContext(ctx).Model(&entity.Episode{}).
		Where("theme IS NOT NULL AND theme <> ''").
		Distinct().
		Order("theme").
		Pluck("theme", &themes).Error
	return themes, err
}

// ListYears возвращает годы, в которые выходили эпизоды, от новых к старым
func (r *EpisodeRepo) ListYears(ctx context.Context) ([]int, error) {
	var years []int
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT EXTRACT(YEAR FROM date)::int AS year FROM episodes ORDER BY year DESC`).
		Scan(&years).Error
	return years, err
}

const episodeSummariesQuery = `
SELECT
	e.ep_num,
	e.date,
	e.num_items,
	e.theme,
	e.sweep,
	MAX(CASE WHEN r.is_presenter THEN p.name END) AS presenter,
	COUNT(r.id) FILTER (WHERE r.is_correct IS TRUE) AS correct,
	COUNT(r.id) FILTER (WHERE r.is_correct IS FALSE) AS incorrect
FROM episodes e
LEFT JOIN results r ON r.episode_id = e.id
LEFT JOIN participants p ON p.id = r.participant_id
GROUP BY e.id
ORDER BY e.ep_num DESC`

// Summaries возвращает сводку по всем эпизодам, новые первыми
func (r *EpisodeRepo) Summaries(ctx context.Context) ([]repository.EpisodeSummary, error) {
	var summaries []repository.EpisodeSummary
	err := r.db.WithContext(ctx).Raw(episodeSummariesQuery).Scan(&summaries).Error
	return summaries, err
}
