package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
	"github.com/yourusername/sof-stats/internal/service"
)

// ============================================================================
// memDB - данные рубрики в памяти вместо PostgreSQL
// ============================================================================

type memDB struct {
	mu           sync.Mutex
	participants []*entity.Participant
	episodes     []*entity.Episode
	results      []*entity.Result
}

func newMemDB() *memDB { return &memDB{} }

func (db *memDB) findParticipant(name string) *entity.Participant {
	name = entity.NormalizeName(name)
	for _, p := range db.participants {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (db *memDB) episodeByID(id uint) *entity.Episode {
	for _, e := range db.episodes {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (db *memDB) addParticipant(p *entity.Participant) {
	p.ID = uint(len(db.participants) + 1)
	db.participants = append(db.participants, p)
}

// ---- ParticipantRepository ----

type memParticipants struct{ db *memDB }

func (r memParticipants) Create(_ context.Context, p *entity.Participant) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.findParticipant(p.Name) != nil {
		return fmt.Errorf("%w: participant %s", apperrors.ErrConflict, p.Name)
	}
	r.db.addParticipant(p)
	return nil
}

func (r memParticipants) GetByID(_ context.Context, id uint) (*entity.Participant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.participants {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memParticipants) GetByName(_ context.Context, name string) (*entity.Participant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p := r.db.findParticipant(name); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: participant %q", apperrors.ErrNotFound, name)
}

func (r memParticipants) filter(keep func(p *entity.Participant) bool) []entity.Participant {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entity.Participant
	for _, p := range r.db.participants {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r memParticipants) List(_ context.Context) ([]entity.Participant, error) {
	return r.filter(func(*entity.Participant) bool { return true }), nil
}

func (r memParticipants) ListRogues(_ context.Context) ([]entity.Participant, error) {
	return r.filter(func(p *entity.Participant) bool { return p.IsRogue }), nil
}

func (r memParticipants) ListGuests(_ context.Context) ([]entity.Participant, error) {
	return r.filter(func(p *entity.Participant) bool { return !p.IsRogue }), nil
}

// tally считает ответы участника так же, как сводные SQL-запросы: только эпизоды с ответом
func (db *memDB) tally(participantID uint) (correct, incorrect int) {
	for _, res := range db.results {
		if res.ParticipantID != participantID || !res.Eligible() {
			continue
		}
		if res.Correct() {
			correct++
		} else {
			incorrect++
		}
	}
	return correct, incorrect
}

func (r memParticipants) RogueSummaries(_ context.Context) ([]repository.RogueSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var rogues []*entity.Participant
	for _, p := range r.db.participants {
		if p.IsRogue {
			rogues = append(rogues, p)
		}
	}
	sort.SliceStable(rogues, func(i, j int) bool {
		a, b := rogues[i].RogueStartDate, rogues[j].RogueStartDate
		switch {
		case a == nil || b == nil:
			if (a == nil) != (b == nil) {
				return b == nil
			}
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return rogues[i].Name < rogues[j].Name
	})

	rows := make([]repository.RogueSummary, 0, len(rogues))
	for _, p := range rogues {
		row := repository.RogueSummary{Name: p.Name, RogueStartDate: p.RogueStartDate, RogueEndDate: p.RogueEndDate}
		row.Correct, row.Incorrect = r.db.tally(p.ID)
		rows = append(rows, row)
	}
	return rows, nil
}

func (r memParticipants) GuestSummaries(_ context.Context) ([]repository.GuestSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rows := []repository.GuestSummary{}
	for _, p := range r.db.participants {
		if p.IsRogue {
			continue
		}
		row := repository.GuestSummary{Name: p.Name}
		row.Correct, row.Incorrect = r.db.tally(p.ID)
		row.NumAppearances = row.Correct + row.Incorrect
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].NumAppearances != rows[j].NumAppearances {
			return rows[i].NumAppearances > rows[j].NumAppearances
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// ---- EpisodeRepository ----

type memEpisodes struct{ db *memDB }

func (r memEpisodes) CreateWithResults(_ context.Context, episode *entity.Episode, entries []repository.ResultEntry) ([]entity.Result, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.episodes {
		if e.EpNum == episode.EpNum || e.Date.Equal(episode.Date) {
			return nil, fmt.Errorf("%w: episode #%d", apperrors.ErrConflict, episode.EpNum)
		}
	}

	// Проверяем участников до записи, чтобы ошибка не оставляла половину эпизода
	for _, entry := range entries {
		if entry.Outcome.Recorded() && !entry.Guest && r.db.findParticipant(entry.ParticipantName) == nil {
			return nil, fmt.Errorf("%w: rogue %q", apperrors.ErrNotFound, entry.ParticipantName)
		}
	}

	episode.ID = uint(len(r.db.episodes) + 1)
	r.db.episodes = append(r.db.episodes, episode)

	var saved []entity.Result
	for _, entry := range entries {
		if !entry.Outcome.Recorded() {
			continue
		}
		p := r.db.findParticipant(entry.ParticipantName)
		if p == nil {
			p = entity.NewGuest(entry.ParticipantName)
			r.db.addParticipant(p)
		}
		res, err := entity.NewResult(episode.ID, p.ID, entry.Outcome)
		if err != nil {
			return nil, err
		}
		res.ID = uint(len(r.db.results) + 1)
		res.Episode = episode
		res.Participant = p
		r.db.results = append(r.db.results, res)
		saved = append(saved, *res)
	}
	return saved, nil
}

func (r memEpisodes) GetByID(_ context.Context, id uint) (*entity.Episode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if e := r.db.episodeByID(id); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r memEpisodes) GetByNum(_ context.Context, epNum int) (*entity.Episode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.episodes {
		if e.EpNum == epNum {
			cp := *e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: episode #%d", apperrors.ErrNotFound, epNum)
}

func (r memEpisodes) List(_ context.Context, dateRange entity.DateRange, desc bool) ([]entity.Episode, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entity.Episode
	for _, e := range r.db.episodes {
		if dateRange.Contains(e.Date) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].EpNum > out[j].EpNum
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r memEpisodes) SetSweep(_ context.Context, episodeID uint, kind entity.SweepKind) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e := r.db.episodeByID(episodeID)
	if e == nil {
		return false, apperrors.ErrNotFound
	}
	if e.Sweep != nil {
		return false, nil
	}
	k := string(kind)
	e.Sweep = &k
	return true, nil
}

func (r memEpisodes) ListUnclassified(_ context.Context) ([]uint, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ids []uint
	for _, e := range r.db.episodes {
		if e.Sweep == nil {
			ids = append(ids, e.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memEpisodes) ListThemes(_ context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := map[string]bool{}
	var themes []string
	for _, e := range r.db.episodes {
		if e.Theme != nil && !seen[*e.Theme] {
			seen[*e.Theme] = true
			themes = append(themes, *e.Theme)
		}
	}
	sort.Strings(themes)
	return themes, nil
}

func (r memEpisodes) ListYears(_ context.Context) ([]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := map[int]bool{}
	var years []int
	for _, e := range r.db.episodes {
		if y := e.Date.Year(); !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years, nil
}

func (r memEpisodes) Summaries(_ context.Context) ([]repository.EpisodeSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var rows []repository.EpisodeSummary
	for _, e := range r.db.episodes {
		rows = append(rows, repository.EpisodeSummary{EpNum: e.EpNum, Date: e.Date, NumItems: e.NumItems, Theme: e.Theme, Sweep: e.Sweep})
	}
	return rows, nil
}

// ---- ResultRepository ----

type memResults struct{ db *memDB }

func (r memResults) List(_ context.Context, filter repository.ResultFilter) ([]entity.Result, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []entity.Result
	for _, res := range r.db.results {
		ep := r.db.episodeByID(res.EpisodeID)
		if filter.ParticipantID != nil && res.ParticipantID != *filter.ParticipantID {
			continue
		}
		if filter.EpisodeID != nil && res.EpisodeID != *filter.EpisodeID {
			continue
		}
		if !filter.DateRange.Contains(ep.Date) {
			continue
		}
		if filter.Theme != "" && ep.ThemeName() != filter.Theme {
			continue
		}
		cp := *res
		epCopy := *ep
		cp.Episode = &epCopy
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Episode.Date.Equal(out[j].Episode.Date) {
			return out[i].Episode.Date.Before(out[j].Episode.Date)
		}
		return out[i].Episode.EpNum < out[j].Episode.EpNum
	})
	return out, nil
}

func (r memResults) Get(_ context.Context, episodeID, participantID uint) (*entity.Result, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, res := range r.db.results {
		if res.EpisodeID == episodeID && res.ParticipantID == participantID {
			cp := *res
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ============================================================================
// Администраторы и кеш
// ============================================================================

type memAdmins struct {
	mu     sync.Mutex
	admins []*entity.Admin
}

func (r *memAdmins) Create(_ context.Context, a *entity.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if existing.Username == a.Username {
			return apperrors.ErrConflict
		}
	}
	// Как BeforeSave в gorm: хешируем открытый пароль
	if !entity.IsPasswordHash(a.Password) {
		hash, err := entity.HashPassword(a.Password)
		if err != nil {
			return err
		}
		a.Password = hash
	}
	a.ID = uint(len(r.admins) + 1)
	r.admins = append(r.admins, a)
	return nil
}

func (r *memAdmins) GetByID(_ context.Context, id uint) (*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memAdmins) GetByUsername(_ context.Context, username string) (*entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memAdmins) List(_ context.Context) ([]entity.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, *a)
	}
	return out, nil
}

type memCache struct {
	mu          sync.Mutex
	data        map[string]string
	generations map[string]int64
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, generations: map[string]int64{}}
}

func (c *memCache) Generation(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key], nil
}

func (c *memCache) BumpGeneration(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return c.generations[key], nil
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = string(b)
	return nil
}

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal([]byte(v), dest)
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// captureEmail запоминает последнее письмо с кодом
type captureEmail struct {
	mu   sync.Mutex
	last service.InviteEmail
}

func (e *captureEmail) SendInviteCode(_ context.Context, email service.InviteEmail, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = email
	return nil
}

func (e *captureEmail) code() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last.Code
}
