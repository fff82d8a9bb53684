package entity

import (
	"fmt"
	"time"

	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// DateLayout формат дат в API и конфигурации
const DateLayout = "2006-01-02"

// DateRange задает фильтр по дате эпизода. Обе границы включительные.
// Нулевая граница означает отсутствие ограничения с этой стороны.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// YearRange возвращает диапазон с 1 января по 31 декабря указанного года
func YearRange(year int) DateRange {
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// IsZero сообщает, что фильтр по датам не задан
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains проверяет попадание даты в диапазон
func (r DateRange) Contains(d time.Time) bool {
	d = DateOnly(d)
	if !r.Start.IsZero() && d.Before(DateOnly(r.Start)) {
		return false
	}
	if !r.End.IsZero() && d.After(DateOnly(r.End)) {
		return false
	}
	return true
}

// Validate проверяет, что начало диапазона не позже конца
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return fmt.Errorf("%w: date range start %s is after end %s",
			apperrors.ErrValidation, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// DateOnly отбрасывает время суток и приводит дату к UTC
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", apperrors.ErrValidation, s)
	}
	return t, nil
}
