package repository

import (
	"context"

	"github.com/yourusername/sof-stats/internal/domain/entity"
)

// ParticipantRepository определяет методы для работы с участниками
type ParticipantRepository interface {
	Create(ctx context.Context, participant *entity.Participant) error
	GetByID(ctx context.Context, id uint) (*entity.Participant, error)
	// GetByName ищет участника по имени, приведенному к Title Case
	GetByName(ctx context.Context, name string) (*entity.Participant, error)
	List(ctx context.Context) ([]entity.Participant, error)
	// ListRogues возвращает всех rogue, отсортированных по имени
	ListRogues(ctx context.Context) ([]entity.Participant, error)
	ListGuests(ctx context.Context) ([]entity.Participant, error)
	RogueSummaries(ctx context.Context) ([]RogueSummary, error)
	GuestSummaries(ctx context.Context) ([]GuestSummary, error)
}
