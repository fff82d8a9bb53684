package stats

import (
	"iter"
	"time"

	"github.com/yourusername/sof-stats/internal/domain/entity"
)

// Point точка временного ряда точности
type Point struct {
	EpisodeID uint      `json:"episode_id"`
	EpNum     int       `json:"ep_num"`
	Date      time.Time `json:"date"`
	Accuracy  float64   `json:"accuracy"`
}

// Series конечная последовательность точек накопленной точности.
// Каждый обход пересчитывает значения заново, курсор нигде не хранится.
type Series struct {
	results []entity.Result
}

func newSeries(results []entity.Result) Series {
	eligible := make([]entity.Result, 0, len(results))
	for _, r := range results {
		if r.Eligible() {
			eligible = append(eligible, r)
		}
	}
	return Series{results: eligible}
}

// All возвращает итератор по точкам ряда в порядке эпизодов
func (s Series) All() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		total, totalCorrect := 0, 0
		for i := range s.results {
			r := &s.results[i]
			total++
			if r.Correct() {
				totalCorrect++
			}
			p := Point{EpisodeID: r.EpisodeID, Accuracy: ratio(totalCorrect, total)}
			if r.Episode != nil {
				p.EpNum = r.Episode.EpNum
				p.Date = r.Episode.Date
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Points собирает все точки ряда в срез
func (s Series) Points() []Point {
	points := make([]Point, 0, len(s.results))
	for p := range s.All() {
		points = append(points, p)
	}
	return points
}

// Len количество точек ряда
func (s Series) Len() int {
	return len(s.results)
}

// Final последняя накопленная точность; 0 для пустого ряда
func (s Series) Final() float64 {
	last := 0.0
	for p := range s.All() {
		last = p.Accuracy
	}
	return last
}
