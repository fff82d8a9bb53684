package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// AddParticipantInput данные нового участника
type AddParticipantInput struct {
	Name      string
	IsRogue   bool
	StartDate *time.Time
	EndDate   *time.Time
}

// RogueQuery ограничения выборки rogue по периоду участия.
// OnDate оставляет тех, кто был в составе в этот день; Overlaps - тех, чей период
// пересекается с диапазоном. Незаданные поля не ограничивают выборку.
type RogueQuery struct {
	OnDate   *time.Time
	Overlaps entity.DateRange
}

// ParticipantService управляет участниками рубрики
type ParticipantService struct {
	participants repository.ParticipantRepository
	cache        *StatsCache
}

// NewParticipantService создает сервис участников
func NewParticipantService(participants repository.ParticipantRepository, cache *StatsCache) *ParticipantService {
	return &ParticipantService{participants: participants, cache: cache}
}

// AddParticipant возвращает существующего участника с таким именем или создает нового
func (s *ParticipantService) AddParticipant(ctx context.Context, input AddParticipantInput) (*entity.Participant, error) {
	name := entity.NormalizeName(input.Name)
	existing, err := s.participants.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up participant %q: %w", name, err)
	}

	var participant *entity.Participant
	if input.IsRogue {
		participant = entity.NewRogue(name, input.StartDate, input.EndDate)
	} else {
		if input.StartDate != nil || input.EndDate != nil {
			return nil, fmt.Errorf("%w: guest %s cannot have a tenure window", apperrors.ErrValidation, name)
		}
		participant = entity.NewGuest(name)
	}
	if err := participant.Validate(); err != nil {
		return nil, err
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	log.Printf("[ParticipantService] Добавлен участник %s", participant)
	return participant, nil
}

// GetParticipant возвращает участника по имени
func (s *ParticipantService) GetParticipant(ctx context.Context, name string) (*entity.Participant, error) {
	return s.participants.GetByName(ctx, name)
}

// ListRogues возвращает rogue, подходящих под запрос, отсортированных по имени
func (s *ParticipantService) ListRogues(ctx context.Context, query RogueQuery) ([]entity.Participant, error) {
	rogues, err := s.participants.ListRogues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rogues: %w", err)
	}
	return FilterRogues(rogues, query), nil
}

// FilterRogues строит новый срез rogue, подходящих под запрос. Исходный срез не меняется.
func FilterRogues(rogues []entity.Participant, query RogueQuery) []entity.Participant {
	filtered := make([]entity.Participant, 0, len(rogues))
	for i := range rogues {
		r := &rogues[i]
		if query.OnDate != nil && !r.ActiveOn(*query.OnDate) {
			continue
		}
		if !query.Overlaps.IsZero() && !r.OverlapsRange(query.Overlaps) {
			continue
		}
		filtered = append(filtered, *r)
	}
	return filtered
}

// ListGuests возвращает всех гостей
func (s *ParticipantService) ListGuests(ctx context.Context) ([]entity.Participant, error) {
	return s.participants.ListGuests(ctx)
}

// RogueSummaries сводная таблица по rogue
func (s *ParticipantService) RogueSummaries(ctx context.Context) ([]repository.RogueSummary, error) {
	return s.participants.RogueSummaries(ctx)
}

// GuestSummaries сводная таблица по гостям
func (s *ParticipantService) GuestSummaries(ctx context.Context) ([]repository.GuestSummary, error) {
	return s.participants.GuestSummaries(ctx)
}
