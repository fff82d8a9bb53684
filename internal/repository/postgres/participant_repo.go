package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create создает участника
func (r *ParticipantRepo) Create(ctx context.Context, participant *entity.Participant) error {
	participant.Name = entity.NormalizeName(participant.Name)
	if err := participant.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: participant %q already exists", apperrors.ErrConflict, participant.Name)
		}
		return err
	}
	return nil
}

// GetByID возвращает участника по ID
func (r *ParticipantRepo) GetByID(ctx context.Context, id uint) (*entity.Participant, error) {
	var participant entity.Participant
	if err := r.db.WithContext(ctx).First(&participant, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &participant, nil
}

// GetByName возвращает участника по имени
func (r *ParticipantRepo) GetByName(ctx context.Context, name string) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.WithContext(ctx).Where("name = ?", entity.NormalizeName(name)).First(&participant).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &participant, nil
}

// List возвращает всех участников
func (r *ParticipantRepo) List(ctx context.Context) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := r.db.WithContext(ctx).Order("name").Find(&participants).Error
	return participants, err
}

// ListRogues возвращает постоянных участников
func (r *ParticipantRepo) ListRogues(ctx context.Context) ([]entity.Participant, error) {
	var rogues []entity.Participant
	err := r.db.WithContext(ctx).Where("is_rogue = ?", true).Order("name").Find(&rogues).Error
	return rogues, err
}

// ListGuests возвращает гостей
func (r *ParticipantRepo) ListGuests(ctx context.Context) ([]entity.Participant, error) {
	var guests []entity.Participant
	err := r.db.WithContext(ctx).Where("is_rogue = ?", false).Order("name").Find(&guests).Error
	return guests, err
}

const rogueSummariesQuery = `
SELECT
	p.name,
	p.rogue_start_date,
	p.rogue_end_date,
	COUNT(r.id) FILTER (WHERE r.is_correct IS TRUE) AS correct,
	COUNT(r.id) FILTER (WHERE r.is_correct IS FALSE) AS incorrect
FROM participants p
LEFT JOIN results r ON r.participant_id = p.id
WHERE p.is_rogue
GROUP BY p.id
ORDER BY p.rogue_start_date NULLS LAST, p.name`

const guestSummariesQuery = `
SELECT
	p.name,
	COUNT(r.is_correct) AS num_appearances,
	COUNT(r.id) FILTER (WHERE r.is_correct IS TRUE) AS correct,
	COUNT(r.id) FILTER (WHERE r.is_correct IS FALSE) AS incorrect
FROM participants p
LEFT JOIN results r ON r.participant_id = p.id
WHERE NOT p.is_rogue
GROUP BY p.id
ORDER BY num_appearances DESC, p.name`

// RogueSummaries возвращает сводку правильных и неправильных ответов rogue в порядке прихода в шоу
func (r *ParticipantRepo) RogueSummaries(ctx context.Context) ([]repository.RogueSummary, error) {
	var summaries []repository.RogueSummary
	err := r.db.WithContext(ctx).Raw(rogueSummariesQuery).Scan(&summaries).Error
	return summaries, err
}

// GuestSummaries возвращает сводку по гостям, самые частые первыми.
// Появлением считается только эпизод с ответом: отсутствие не учитывается.
func (r *ParticipantRepo) GuestSummaries(ctx context.Context) ([]repository.GuestSummary, error) {
	var summaries []repository.GuestSummary
	err := r.db.WithContext(ctx).Raw(guestSummariesQuery).Scan(&summaries).Error
	return summaries, err
}
