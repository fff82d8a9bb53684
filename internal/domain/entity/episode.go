package entity

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// SweepKind классификация эпизода по итогам рубрики
type SweepKind string

// Значения поля Episode.Sweep.
// SweepPresenter - все участники ошиблись (победа ведущего),
// SweepParticipant - все участники ответили верно.
const (
	SweepNone        SweepKind = "none"
	SweepPresenter   SweepKind = "presenter_sweep"
	SweepParticipant SweepKind = "participant_sweep"
)

// ParseSweepKind проверяет строковое значение классификации
func ParseSweepKind(s string) (SweepKind, error) {
	switch SweepKind(s) {
	case SweepNone, SweepPresenter, SweepParticipant:
		return SweepKind(s), nil
	}
	return "", fmt.Errorf("%w: unknown sweep kind %q", apperrors.ErrValidation, s)
}

// Episode представляет выпуск подкаста с рубрикой "Science or Fiction"
type Episode struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	EpNum    int       `gorm:"not null;uniqueIndex" json:"ep_num"`
	Date     time.Time `gorm:"type:date;not null;uniqueIndex" json:"date"`
	NumItems int       `gorm:"not null;default:0" json:"num_items"`
	Theme    *string   `gorm:"size:50;index" json:"theme,omitempty"`
	// Sweep равен nil, пока эпизод не классифицирован
	Sweep     *string   `gorm:"size:20" json:"sweep,omitempty"`
	Results   []Result  `gorm:"foreignKey:EpisodeID" json:"results,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Episode) TableName() string {
	return "episodes"
}

// NewEpisode создает эпизод. Пустая тема сохраняется как NULL.
func NewEpisode(epNum int, date time.Time, numItems int, theme string) *Episode {
	ep := &Episode{
		EpNum:    epNum,
		Date:     DateOnly(date),
		NumItems: numItems,
	}
	if t := strings.TrimSpace(theme); t != "" {
		ep.Theme = &t
	}
	return ep
}

// Validate проверяет обязательные поля эпизода
func (e *Episode) Validate() error {
	if e.EpNum <= 0 {
		return fmt.Errorf("%w: episode number must be positive", apperrors.ErrValidation)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: episode date is required", apperrors.ErrValidation)
	}
	if e.NumItems < 0 {
		return fmt.Errorf("%w: number of items cannot be negative", apperrors.ErrValidation)
	}
	return nil
}

// ThemeName возвращает тему или пустую строку
func (e *Episode) ThemeName() string {
	if e.Theme == nil {
		return ""
	}
	return *e.Theme
}

// SweepKind возвращает сохраненную классификацию и признак того, что она уже выполнена
func (e *Episode) SweepKind() (SweepKind, bool) {
	if e.Sweep == nil {
		return "", false
	}
	return SweepKind(*e.Sweep), true
}

func (e *Episode) String() string {
	return fmt.Sprintf("Ep %d - %s: %d items", e.EpNum, e.Date.Format(DateLayout), e.NumItems)
}
