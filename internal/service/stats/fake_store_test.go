package stats

import (
	"context"
	"sort"
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// fakeStore хранилище в памяти с той же семантикой фильтров, что и postgres-репозиторий
type fakeStore struct {
	participants []entity.Participant
	episodes     []entity.Episode
	results      []entity.Result
	sweepWrites  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *fakeStore) addParticipant(name string, rogue bool) uint {
	id := uint(len(s.participants) + 1)
	s.participants = append(s.participants, entity.Participant{ID: id, Name: entity.NormalizeName(name), IsRogue: rogue})
	return id
}

// addEpisode добавляет эпизод с результатами: name -> label
func (s *fakeStore) addEpisode(epNum int, d time.Time, theme string, outcomes map[string]string) uint {
	ep := entity.NewEpisode(epNum, d, 4, theme)
	ep.ID = uint(len(s.episodes) + 1)
	s.episodes = append(s.episodes, *ep)

	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		outcome, err := entity.ParseOutcome(outcomes[name])
		if err != nil {
			panic(err)
		}
		if !outcome.Recorded() {
			continue
		}
		p, err := s.GetParticipantByName(context.Background(), name)
		if err != nil {
			panic(err)
		}
		r, err := entity.NewResult(ep.ID, p.ID, outcome)
		if err != nil {
			panic(err)
		}
		r.ID = uint(len(s.results) + 1)
		s.results = append(s.results, *r)
	}
	return ep.ID
}

func (s *fakeStore) episode(id uint) *entity.Episode {
	for i := range s.episodes {
		if s.episodes[i].ID == id {
			return &s.episodes[i]
		}
	}
	return nil
}

func (s *fakeStore) GetParticipantByName(_ context.Context, name string) (*entity.Participant, error) {
	normalized := entity.NormalizeName(name)
	for i := range s.participants {
		if s.participants[i].Name == normalized {
			p := s.participants[i]
			return &p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *fakeStore) ListResults(_ context.Context, f repository.ResultFilter) ([]entity.Result, error) {
	out := make([]entity.Result, 0)
	for _, r := range s.results {
		ep := s.episode(r.EpisodeID)
		if f.ParticipantID != nil && r.ParticipantID != *f.ParticipantID {
			continue
		}
		if f.EpisodeID != nil && r.EpisodeID != *f.EpisodeID {
			continue
		}
		if !f.DateRange.Contains(ep.Date) {
			continue
		}
		if f.Theme != "" && ep.ThemeName() != f.Theme {
			continue
		}
		epCopy := *ep
		r.Episode = &epCopy
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Episode.Date.Before(out[j].Episode.Date)
	})
	return out, nil
}

func (s *fakeStore) ListEpisodes(_ context.Context, dr entity.DateRange) ([]entity.Episode, error) {
	out := make([]entity.Episode, 0)
	for _, ep := range s.episodes {
		if dr.Contains(ep.Date) {
			out = append(out, ep)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *fakeStore) SetEpisodeSweep(_ context.Context, id uint, kind entity.SweepKind) (bool, error) {
	ep := s.episode(id)
	if ep == nil {
		return false, apperrors.ErrNotFound
	}
	if ep.Sweep != nil {
		return false, nil
	}
	k := string(kind)
	ep.Sweep = &k
	s.sweepWrites++
	return true, nil
}

func resultsOf(episodeID uint) repository.ResultFilter {
	return repository.ResultFilter{}.ForEpisode(episodeID)
}
