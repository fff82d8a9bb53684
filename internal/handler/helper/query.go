package helper

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sof-stats/internal/domain/entity"
)

// ParseOptionalDate разбирает дату YYYY-MM-DD; пустая строка дает nil
func ParseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := entity.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DateQuery читает необязательную дату из query-параметра
func DateQuery(c *gin.Context, key string) (*time.Time, error) {
	return ParseOptionalDate(c.Query(key))
}

// DateRangeQuery собирает диапазон из параметров start и end.
// Отсутствующая граница не ограничивает выборку.
func DateRangeQuery(c *gin.Context) (entity.DateRange, error) {
	var r entity.DateRange

	start, err := DateQuery(c, "start")
	if err != nil {
		return r, err
	}
	end, err := DateQuery(c, "end")
	if err != nil {
		return r, err
	}
	if start != nil {
		r.Start = *start
	}
	if end != nil {
		r.End = *end
	}
	return r, r.Validate()
}
