package service

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
)

const (
	seedFirstEpNum    = 600
	seedAdminUsername = "admin"
	seedAdminPassword = "adminpass"
	seedHost          = "Steve Novella"
)

// SeedRogue rogue тестовых данных с периодом участия и вероятностью верного ответа
type SeedRogue struct {
	Name     string
	Start    *time.Time
	End      *time.Time
	Accuracy float64
}

var seedFirstDate = time.Date(2012, time.January, 7, 0, 0, 0, 0, time.UTC)

var seedThemes = []string{
	"", "Star Wars", "Star Trek", "Numbers", "Vaccines", "Computer Science", "Biology",
	"Chemistry", "Diseases", "Spacefaring", "Pseudosciences", "Brains", "Aquatic Animals",
	"Medicine", "Steel",
}

func seedDate(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// DefaultSeedRogues состав для тестовых данных. Ребекка уходит, Кара приходит позже.
func DefaultSeedRogues() []SeedRogue {
	return []SeedRogue{
		{Name: "Steve Novella", Accuracy: 0.9},
		{Name: "Bob Novella", Accuracy: 0.7},
		{Name: "Jay Novella", Accuracy: 0.4},
		{Name: "Evan Bernstein", Accuracy: 0.5},
		{Name: "Rebecca Watson", End: seedDate(2014, time.December, 20), Accuracy: 0.6},
		{Name: "Cara Santa Maria", Start: seedDate(2014, time.June, 14), Accuracy: 0.2},
	}
}

// GenerateSeedEpisodes строит count еженедельных эпизодов начиная с 7 января 2012.
// Rogue вне периода участия получает метку NULL и не попадает в результаты.
func GenerateSeedEpisodes(rng *rand.Rand, rogues []SeedRogue, count int) []AddEpisodeInput {
	episodes := make([]AddEpisodeInput, 0, count)
	for i := 0; i < count; i++ {
		date := seedFirstDate.AddDate(0, 0, 7*i)

		active := make([]SeedRogue, 0, len(rogues))
		for _, r := range rogues {
			p := entity.Participant{IsRogue: true, RogueStartDate: r.Start, RogueEndDate: r.End}
			if p.ActiveOn(date) {
				active = append(active, r)
			}
		}

		presenter := seedHost
		if rng.Float64() > 0.9 && len(active) > 0 {
			presenter = active[rng.IntN(len(active))].Name
		}

		labels := make(map[string]string, len(rogues))
		for _, r := range rogues {
			p := entity.Participant{IsRogue: true, RogueStartDate: r.Start, RogueEndDate: r.End}
			switch {
			case !p.ActiveOn(date):
				labels[r.Name] = entity.NullOutcomeLabel
			case r.Name == presenter:
				labels[r.Name] = "presenter"
			case rng.Float64() < 0.1:
				labels[r.Name] = "absent"
			case rng.Float64() <= r.Accuracy:
				labels[r.Name] = "correct"
			default:
				labels[r.Name] = "incorrect"
			}
		}

		episodes = append(episodes, AddEpisodeInput{
			EpNum:     seedFirstEpNum + i,
			Date:      date,
			NumItems:  3 + rng.IntN(2),
			Theme:     seedThemes[rng.IntN(len(seedThemes))],
			Presenter: presenter,
			Rogues:    labels,
		})
	}
	return episodes
}

type seedAdmins interface {
	EnsureAdmin(ctx context.Context, username, password string) error
}

type seedParticipants interface {
	AddParticipant(ctx context.Context, input AddParticipantInput) (*entity.Participant, error)
}

type seedEpisodes interface {
	AddEpisode(ctx context.Context, input AddEpisodeInput) (*AddEpisodeResult, error)
	ListYears(ctx context.Context) ([]int, error)
}

// Seeder заполняет пустую БД тестовыми данными
type Seeder struct {
	admins       seedAdmins
	participants seedParticipants
	episodes     seedEpisodes
	rng          *rand.Rand
}

// NewSeeder создает заполнитель тестовых данных
func NewSeeder(admins seedAdmins, participants seedParticipants, episodes seedEpisodes, seed uint64) *Seeder {
	return &Seeder{
		admins:       admins,
		participants: participants,
		episodes:     episodes,
		rng:          rand.New(rand.NewPCG(seed, seed^0x5eed)),
	}
}

// Seed создает администратора и rogue, а эпизоды добавляет только в пустую БД
func (s *Seeder) Seed(ctx context.Context, numEpisodes int) error {
	if err := s.admins.EnsureAdmin(ctx, seedAdminUsername, seedAdminPassword); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	rogues := DefaultSeedRogues()
	for _, r := range rogues {
		input := AddParticipantInput{Name: r.Name, IsRogue: true, StartDate: r.Start, EndDate: r.End}
		if _, err := s.participants.AddParticipant(ctx, input); err != nil {
			return fmt.Errorf("failed to seed rogue %s: %w", r.Name, err)
		}
	}

	years, err := s.episodes.ListYears(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing episodes: %w", err)
	}
	if len(years) > 0 {
		log.Printf("[Seeder] Эпизоды уже есть, пропускаем заполнение")
		return nil
	}

	for _, input := range GenerateSeedEpisodes(s.rng, rogues, numEpisodes) {
		if _, err := s.episodes.AddEpisode(ctx, input); err != nil {
			return fmt.Errorf("failed to seed episode #%d: %w", input.EpNum, err)
		}
	}
	log.Printf("[Seeder] Добавлено тестовых эпизодов: %d", numEpisodes)
	return nil
}
