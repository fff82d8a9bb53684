package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// Participant представляет участника рубрики: постоянного ведущего (rogue) или гостя.
// Для rogue хранится период участия: начало включительно, конец исключительно,
// nil в конце означает, что участник в составе до сих пор.
type Participant struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:80;not null;uniqueIndex" json:"name"`
	IsRogue        bool       `gorm:"not null;default:false;index" json:"is_rogue"`
	RogueStartDate *time.Time `gorm:"type:date" json:"rogue_start_date,omitempty"`
	RogueEndDate   *time.Time `gorm:"type:date" json:"rogue_end_date,omitempty"`
	Results        []Result   `gorm:"foreignKey:ParticipantID" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Participant) TableName() string {
	return "participants"
}

// NormalizeName приводит имя к виду "Title Case", как оно хранится в БД.
// Апостроф начинает новое слово: "o'brien" -> "O'Brien", "mary-jane" -> "Mary-Jane".
func NormalizeName(name string) string {
	name = cases.Title(language.Und).String(strings.Join(strings.Fields(name), " "))

	runes := []rune(name)
	for i := 1; i < len(runes); i++ {
		if runes[i-1] == '\'' || runes[i-1] == '’' {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes)
}

// NewGuest создает гостя
func NewGuest(name string) *Participant {
	return &Participant{Name: NormalizeName(name)}
}

// NewRogue создает постоянного участника с периодом участия
func NewRogue(name string, start, end *time.Time) *Participant {
	p := &Participant{Name: NormalizeName(name), IsRogue: true}
	if start != nil {
		s := DateOnly(*start)
		p.RogueStartDate = &s
	}
	if end != nil {
		e := DateOnly(*end)
		p.RogueEndDate = &e
	}
	return p
}

// Validate проверяет имя и период участия
func (p *Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: participant name is required", apperrors.ErrValidation)
	}
	if !p.IsRogue && (p.RogueStartDate != nil || p.RogueEndDate != nil) {
		return fmt.Errorf("%w: guest %s cannot have a tenure window", apperrors.ErrValidation, p.Name)
	}
	if p.RogueStartDate != nil && p.RogueEndDate != nil && !p.RogueStartDate.Before(*p.RogueEndDate) {
		return fmt.Errorf("%w: tenure start must be before tenure end for %s", apperrors.ErrValidation, p.Name)
	}
	return nil
}

// ActiveOn сообщает, был ли rogue в составе в указанный день
func (p *Participant) ActiveOn(d time.Time) bool {
	if !p.IsRogue {
		return false
	}
	d = DateOnly(d)
	if p.RogueStartDate != nil && d.Before(DateOnly(*p.RogueStartDate)) {
		return false
	}
	if p.RogueEndDate != nil && !d.Before(DateOnly(*p.RogueEndDate)) {
		return false
	}
	return true
}

// OverlapsRange сообщает, пересекается ли период участия rogue с диапазоном дат
func (p *Participant) OverlapsRange(r DateRange) bool {
	if !p.IsRogue {
		return false
	}
	if p.RogueStartDate != nil && !r.End.IsZero() && DateOnly(*p.RogueStartDate).After(DateOnly(r.End)) {
		return false
	}
	if p.RogueEndDate != nil && !r.Start.IsZero() && !DateOnly(*p.RogueEndDate).After(DateOnly(r.Start)) {
		return false
	}
	return true
}

func (p *Participant) String() string {
	if p.IsRogue {
		return p.Name + ": Rogue"
	}
	return p.Name + ": Guest"
}
