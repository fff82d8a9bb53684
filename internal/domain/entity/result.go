package entity

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// Outcome описывает исход участника в эпизоде
type Outcome int

// Возможные исходы. OutcomeNone соответствует метке NULL: результат не записывается.
const (
	OutcomeNone Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeAbsent
	OutcomePresenter
)

// NullOutcomeLabel служебная метка "результат не записан"
const NullOutcomeLabel = "NULL"

// ErrInvalidOutcomeLabel возвращается для неизвестной метки исхода
var ErrInvalidOutcomeLabel = fmt.Errorf("%w: invalid outcome label", apperrors.ErrValidation)

// ParseOutcome преобразует сырую метку формы в исход.
// Неизвестная метка - всегда ошибка, молча подставлять значение по умолчанию нельзя:
// это испортит агрегаты.
func ParseOutcome(label string) (Outcome, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == NullOutcomeLabel {
		return OutcomeNone, nil
	}
	switch strings.ToLower(trimmed) {
	case "correct":
		return OutcomeCorrect, nil
	case "incorrect":
		return OutcomeIncorrect, nil
	case "absent":
		return OutcomeAbsent, nil
	case "presenter":
		return OutcomePresenter, nil
	}
	return OutcomeNone, fmt.Errorf("%w: %q", ErrInvalidOutcomeLabel, label)
}

// Recorded сообщает, нужно ли создавать запись Result для этого исхода
func (o Outcome) Recorded() bool {
	return o != OutcomeNone
}

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeAbsent:
		return "absent"
	case OutcomePresenter:
		return "presenter"
	default:
		return NullOutcomeLabel
	}
}

// Result представляет результат участника в одном эпизоде.
// IsCorrect равен nil, если участник отсутствовал или вел рубрику.
type Result struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	EpisodeID     uint         `gorm:"not null;index;uniqueIndex:idx_episode_participant" json:"episode_id"`
	ParticipantID uint         `gorm:"not null;index;uniqueIndex:idx_episode_participant" json:"participant_id"`
	IsCorrect     *bool        `json:"is_correct"`
	IsAbsent      bool         `gorm:"not null;default:false" json:"is_absent"`
	IsPresenter   bool         `gorm:"not null;default:false" json:"is_presenter"`
	Episode       *Episode     `gorm:"foreignKey:EpisodeID" json:"episode,omitempty"`
	Participant   *Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Result) TableName() string {
	return "results"
}

// NewResult создает результат из исхода. Для OutcomeNone возвращает ошибку:
// вызывающий код должен пропустить такую запись заранее.
func NewResult(episodeID, participantID uint, outcome Outcome) (*Result, error) {
	r := &Result{EpisodeID: episodeID, ParticipantID: participantID}
	if err := r.ApplyOutcome(outcome); err != nil {
		return nil, err
	}
	return r, nil
}

// ApplyOutcome раскладывает исход на три поля записи
func (r *Result) ApplyOutcome(outcome Outcome) error {
	r.IsCorrect = nil
	r.IsAbsent = false
	r.IsPresenter = false

	switch outcome {
	case OutcomeCorrect:
		r.IsCorrect = boolPtr(true)
	case OutcomeIncorrect:
		r.IsCorrect = boolPtr(false)
	case OutcomeAbsent:
		r.IsAbsent = true
	case OutcomePresenter:
		r.IsPresenter = true
	default:
		return fmt.Errorf("%w: outcome %s is not recordable", ErrInvalidOutcomeLabel, outcome)
	}
	return nil
}

// Outcome восстанавливает исход из полей записи
func (r *Result) Outcome() Outcome {
	switch {
	case r.IsPresenter:
		return OutcomePresenter
	case r.IsAbsent:
		return OutcomeAbsent
	case r.IsCorrect == nil:
		return OutcomeNone
	case *r.IsCorrect:
		return OutcomeCorrect
	default:
		return OutcomeIncorrect
	}
}

// Eligible сообщает, участвует ли результат в подсчете правильности
func (r *Result) Eligible() bool {
	return !r.IsAbsent && !r.IsPresenter && r.IsCorrect != nil
}

// Correct возвращает true только для засчитанного правильного ответа
func (r *Result) Correct() bool {
	return r.Eligible() && *r.IsCorrect
}

// Validate проверяет инварианты трех полей
func (r *Result) Validate() error {
	if r.IsAbsent && r.IsPresenter {
		return fmt.Errorf("%w: result cannot be both absent and presenter", apperrors.ErrValidation)
	}
	if (r.IsAbsent || r.IsPresenter) && r.IsCorrect != nil {
		return fmt.Errorf("%w: absent or presenter result must not carry correctness", apperrors.ErrValidation)
	}
	if !r.IsAbsent && !r.IsPresenter && r.IsCorrect == nil {
		return fmt.Errorf("%w: result has no outcome", apperrors.ErrValidation)
	}
	return nil
}

func boolPtr(v bool) *bool {
	return &v
}
