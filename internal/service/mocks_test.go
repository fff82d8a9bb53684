package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/domain/repository"
	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// ============================================================================
// Моки репозиториев
// ============================================================================

type MockAdminRepo struct {
	mock.Mock
}

func (m *MockAdminRepo) Create(ctx context.Context, admin *entity.Admin) error {
	args := m.Called(ctx, admin)
	if args.Error(0) == nil && admin.ID == 0 {
		admin.ID = 1
	}
	return args.Error(0)
}

func (m *MockAdminRepo) GetByID(ctx context.Context, id uint) (*entity.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}

func (m *MockAdminRepo) GetByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Admin), args.Error(1)
}

func (m *MockAdminRepo) List(ctx context.Context) ([]entity.Admin, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Admin), args.Error(1)
}

type MockEpisodeRepo struct {
	mock.Mock
}

func (m *MockEpisodeRepo) CreateWithResults(ctx context.Context, episode *entity.Episode, entries []repository.ResultEntry) ([]entity.Result, error) {
	args := m.Called(ctx, episode, entries)
	if args.Error(1) == nil {
		episode.ID = 42
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Result), args.Error(1)
}

func (m *MockEpisodeRepo) GetByID(ctx context.Context, id uint) (*entity.Episode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Episode), args.Error(1)
}

func (m *MockEpisodeRepo) GetByNum(ctx context.Context, epNum int) (*entity.Episode, error) {
	args := m.Called(ctx, epNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Episode), args.Error(1)
}

func (m *MockEpisodeRepo) List(ctx context.Context, dateRange entity.DateRange, desc bool) ([]entity.Episode, error) {
	args := m.Called(ctx, dateRange, desc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Episode), args.Error(1)
}

func (m *MockEpisodeRepo) SetSweep(ctx context.Context, episodeID uint, kind entity.SweepKind) (bool, error) {
	args := m.Called(ctx, episodeID, kind)
	return args.Bool(0), args.Error(1)
}

func (m *MockEpisodeRepo) ListUnclassified(ctx context.Context) ([]uint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockEpisodeRepo) ListThemes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockEpisodeRepo) ListYears(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockEpisodeRepo) Summaries(ctx context.Context) ([]repository.EpisodeSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.EpisodeSummary), args.Error(1)
}

type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) Create(ctx context.Context, participant *entity.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockParticipantRepo) GetByID(ctx context.Context, id uint) (*entity.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) GetByName(ctx context.Context, name string) (*entity.Participant, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) List(ctx context.Context) ([]entity.Participant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) ListRogues(ctx context.Context) ([]entity.Participant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) ListGuests(ctx context.Context) ([]entity.Participant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) RogueSummaries(ctx context.Context) ([]repository.RogueSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RogueSummary), args.Error(1)
}

func (m *MockParticipantRepo) GuestSummaries(ctx context.Context) ([]repository.GuestSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.GuestSummary), args.Error(1)
}

type MockResultRepo struct {
	mock.Mock
}

func (m *MockResultRepo) List(ctx context.Context, filter repository.ResultFilter) ([]entity.Result, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Result), args.Error(1)
}

func (m *MockResultRepo) Get(ctx context.Context, episodeID, participantID uint) (*entity.Result, error) {
	args := m.Called(ctx, episodeID, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Result), args.Error(1)
}

// ============================================================================
// Моки сервисов
// ============================================================================

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendInviteCode(ctx context.Context, email InviteEmail, idempotencyKey string) error {
	args := m.Called(ctx, email, idempotencyKey)
	return args.Error(0)
}

type MockSweepChecker struct {
	mock.Mock
}

func (m *MockSweepChecker) CheckSweep(ctx context.Context, episodeID uint) (entity.SweepKind, bool, error) {
	args := m.Called(ctx, episodeID)
	return args.Get(0).(entity.SweepKind), args.Bool(1), args.Error(2)
}

type MockEpisodeEvents struct {
	mock.Mock
}

func (m *MockEpisodeEvents) EpisodeAdded(ctx context.Context, episode *entity.Episode, sweep entity.SweepKind) {
	m.Called(ctx, episode, sweep)
}

// ============================================================================
// memCache - кеш в памяти вместо Redis
// ============================================================================

type memCache struct {
	mu          sync.Mutex
	data        map[string]string
	generations map[string]int64
	// failGet заставляет Generation и GetJSON возвращать ошибку, как при недоступном Redis
	failGet error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string), generations: make(map[string]int64)}
}

func (c *memCache) Generation(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return 0, c.failGet
	}
	return c.generations[key], nil
}

func (c *memCache) BumpGeneration(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[key]++
	return c.generations[key], nil
}

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = string(b)
	return nil
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return c.failGet
	}
	v, ok := c.data[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal([]byte(v), dest)
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}
